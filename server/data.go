package server

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/existflow/prayerlist/internal/model"
	"github.com/existflow/prayerlist/internal/reminder"
)

type account struct {
	user       model.User
	hash       []byte
	selfID     int64 // the user's own prayer subject
	pushTokens map[string]string
}

type group struct {
	model.Group
	owner   int64
	members []int64
	// per-member display order of this group, and per-group order of prayers
	memberSeq map[int64]int
	prayerSeq map[int64]int
}

type resetCode struct {
	userID  int64
	code    string
	token   string
	expires time.Time
}

// data holds every record. All methods lock mu.
type data struct {
	mu     sync.Mutex
	nextID int64

	accounts      map[int64]*account
	prayers       map[int64]*model.Prayer
	access        map[int64]*model.PrayerAccess
	groups        map[int64]*group
	invites       map[string]int64
	subjects      map[int64]*model.PrayerSubject
	notifications map[int64]*model.Notification
	prefs         map[int64]*model.UserPreference
	resets        map[string]*resetCode // by email
}

func newData() *data {
	return &data{
		accounts:      map[int64]*account{},
		prayers:       map[int64]*model.Prayer{},
		access:        map[int64]*model.PrayerAccess{},
		groups:        map[int64]*group{},
		invites:       map[string]int64{},
		subjects:      map[int64]*model.PrayerSubject{},
		notifications: map[int64]*model.Notification{},
		prefs:         map[int64]*model.UserPreference{},
		resets:        map[string]*resetCode{},
	}
}

func (d *data) id() int64 {
	d.nextID++
	return d.nextID
}

func audit(by int64, now time.Time) model.Audit {
	now = timestamp(now)
	return model.Audit{CreatedBy: by, UpdatedBy: by, DatetimeCreate: now, DatetimeUpdate: now}
}

func touch(a *model.Audit, by int64, now time.Time) {
	a.UpdatedBy = by
	a.DatetimeUpdate = timestamp(now)
}

// --- accounts ---

func (d *data) userExists(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.accounts[id]
	return ok
}

func (d *data) findLogin(login string) *account {
	login = strings.ToLower(strings.TrimSpace(login))
	for _, a := range d.accounts {
		if strings.ToLower(a.user.Username) == login || strings.ToLower(a.user.Email) == login {
			return a
		}
	}
	return nil
}

func (d *data) usernameTaken(name string, except int64) bool {
	name = strings.ToLower(name)
	for id, a := range d.accounts {
		if id != except && name != "" && strings.ToLower(a.user.Username) == name {
			return true
		}
	}
	return false
}

func (d *data) emailTaken(email string, except int64) bool {
	email = strings.ToLower(email)
	for id, a := range d.accounts {
		if id != except && strings.ToLower(a.user.Email) == email {
			return true
		}
	}
	return false
}

func (d *data) createUser(u model.User, password string, now time.Time) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if u.Username == "" {
		u.Username = u.Email
	}
	if d.usernameTaken(u.Username, 0) || d.emailTaken(u.Email, 0) {
		return model.User{}, conflict("username or email already exists")
	}

	u.UserProfileID = d.id()
	u.Audit = audit(u.UserProfileID, now)
	a := &account{user: u, hash: hash, pushTokens: map[string]string{}}

	self := &model.PrayerSubject{
		PrayerSubjectID:          d.id(),
		UserProfileID:            u.UserProfileID,
		PrayerSubjectType:        model.SubjectIndividual,
		PrayerSubjectDisplayName: u.DisplayName(),
		LinkedUserProfileID:      &u.UserProfileID,
		Audit:                    audit(u.UserProfileID, now),
	}
	d.subjects[self.PrayerSubjectID] = self
	a.selfID = self.PrayerSubjectID
	d.accounts[u.UserProfileID] = a

	reminders, _ := reminder.Encode([]reminder.Reminder{reminder.Default()})
	for _, p := range []model.UserPreference{
		{PreferenceKey: model.PrefNotifications, PreferenceValue: "true"},
		{PreferenceKey: model.PrefPrayerReminders, PreferenceValue: reminders},
	} {
		p.UserPreferenceID = d.id()
		p.UserID = u.UserProfileID
		p.IsActive = true
		p.DatetimeCreate, p.DatetimeUpdate = timestamp(now), timestamp(now)
		d.prefs[p.UserPreferenceID] = &p
	}
	return u, nil
}

func (d *data) authenticate(login, password string) (model.User, bool) {
	d.mu.Lock()
	a := d.findLogin(login)
	d.mu.Unlock()
	if a == nil || bcrypt.CompareHashAndPassword(a.hash, []byte(password)) != nil {
		return model.User{}, false
	}
	return a.user, true
}

type profilePatch struct {
	Username    *string `json:"username"`
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
}

func (d *data) updateProfile(id int64, p profilePatch, now time.Time) (model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.accounts[id]
	if !ok {
		return model.User{}, notFound("user")
	}
	if p.Username != nil {
		if d.usernameTaken(*p.Username, id) {
			return model.User{}, conflict("username already taken")
		}
		a.user.Username = *p.Username
	}
	if p.Email != nil {
		if d.emailTaken(*p.Email, id) {
			return model.User{}, conflict("email already registered")
		}
		a.user.Email = *p.Email
	}
	if p.FirstName != nil {
		a.user.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		a.user.LastName = *p.LastName
	}
	if p.PhoneNumber != nil {
		a.user.PhoneNumber = *p.PhoneNumber
	}
	touch(&a.user.Audit, id, now)
	return a.user, nil
}

func (d *data) changePassword(id int64, oldPassword, newPassword string) error {
	d.mu.Lock()
	a, ok := d.accounts[id]
	d.mu.Unlock()
	if !ok {
		return notFound("user")
	}
	if bcrypt.CompareHashAndPassword(a.hash, []byte(oldPassword)) != nil {
		return badRequest("current password is incorrect")
	}
	return d.setPassword(id, newPassword)
}

func (d *data) setPassword(id int64, password string) error {
	if len(password) < 6 {
		return badRequest("password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.accounts[id]
	if !ok {
		return notFound("user")
	}
	a.hash = hash
	return nil
}

func (d *data) deleteUser(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.accounts, id)
	for pid, p := range d.prayers {
		if p.UserProfileID == id {
			d.deletePrayerLocked(pid)
		}
	}
	for sid, s := range d.subjects {
		if s.UserProfileID == id {
			delete(d.subjects, sid)
		}
	}
	for nid, n := range d.notifications {
		if n.UserProfileID == id {
			delete(d.notifications, nid)
		}
	}
	for pid, p := range d.prefs {
		if p.UserID == id {
			delete(d.prefs, pid)
		}
	}
	for gid, g := range d.groups {
		if g.owner == id {
			d.deleteGroupLocked(gid)
			continue
		}
		g.removeMember(id)
	}
}

func (d *data) addPushToken(id int64, token, platform string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if a, ok := d.accounts[id]; ok {
		a.pushTokens[token] = platform
	}
}

// --- password reset ---

func (d *data) startReset(email, code string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	a := d.findLogin(email)
	if a == nil {
		return false
	}
	d.resets[strings.ToLower(a.user.Email)] = &resetCode{userID: a.user.UserProfileID, code: code, expires: now.Add(15 * time.Minute)}
	return true
}

func (d *data) verifyReset(email, code, token string, now time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.resets[strings.ToLower(email)]
	if !ok || r.code != code || now.After(r.expires) {
		return unauthorizedErr("invalid or expired code")
	}
	r.token = token
	return nil
}

func (d *data) finishReset(token, password string, now time.Time) error {
	d.mu.Lock()
	var found *resetCode
	var key string
	for k, r := range d.resets {
		if r.token != "" && r.token == token && !now.After(r.expires) {
			found, key = r, k
			break
		}
	}
	if found != nil {
		delete(d.resets, key)
	}
	d.mu.Unlock()
	if found == nil {
		return unauthorizedErr("invalid or expired token")
	}
	return d.setPassword(found.userID, password)
}

// --- prayers ---

type prayerInput struct {
	Title             string `json:"title"`
	PrayerDescription string `json:"prayerDescription"`
	IsPrivate         bool   `json:"isPrivate"`
	PrayerType        string `json:"prayerType"`
	IsAnswered        *bool  `json:"isAnswered"`
	PrayerPriority    *int   `json:"prayerPriority"`
	PrayerSubjectID   *int64 `json:"prayerSubjectId"`
}

func (in prayerInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return badRequest("title is required")
	}
	return nil
}

func (d *data) visibleTo(p *model.Prayer, userID int64) bool {
	if p.UserProfileID == userID {
		return true
	}
	for _, a := range d.access {
		if a.PrayerID != p.PrayerID {
			continue
		}
		if a.AccessType == model.AccessTypeUser && a.AccessTypeID == userID {
			return true
		}
		if g, ok := d.groups[a.AccessTypeID]; a.AccessType == model.AccessTypeGroup && ok && g.hasMember(userID) {
			return true
		}
	}
	return false
}

func sortPrayers(list []model.Prayer, seq func(model.Prayer) int) {
	sort.SliceStable(list, func(i, j int) bool {
		si, sj := seq(list[i]), seq(list[j])
		if si != sj {
			return si < sj
		}
		return list[i].PrayerID < list[j].PrayerID
	})
}

func (d *data) userPrayers(userID int64) []model.Prayer {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []model.Prayer{}
	for _, p := range d.prayers {
		if p.UserProfileID == userID || d.sharedWithUser(p.PrayerID, userID) {
			out = append(out, *p)
		}
	}
	sortPrayers(out, func(p model.Prayer) int { return p.DisplaySequence })
	return out
}

func (d *data) sharedWithUser(prayerID, userID int64) bool {
	for _, a := range d.access {
		if a.PrayerID == prayerID && a.AccessType == model.AccessTypeUser && a.AccessTypeID == userID {
			return true
		}
	}
	return false
}

func (d *data) createPrayer(owner int64, in prayerInput, now time.Time) (*model.Prayer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	a, ok := d.accounts[owner]
	if !ok {
		return nil, notFound("user")
	}
	subject := a.selfID
	if in.PrayerSubjectID != nil {
		s, ok := d.subjects[*in.PrayerSubjectID]
		if !ok || s.UserProfileID != owner {
			return nil, badRequest("unknown prayer subject")
		}
		subject = s.PrayerSubjectID
	}
	p := &model.Prayer{
		PrayerID:          d.id(),
		UserProfileID:     owner,
		PrayerSubjectID:   &subject,
		Title:             in.Title,
		PrayerDescription: in.PrayerDescription,
		IsPrivate:         in.IsPrivate,
		PrayerType:        in.PrayerType,
		DisplaySequence:   len(d.prayers),
		Audit:             audit(owner, now),
	}
	if in.PrayerPriority != nil {
		p.PrayerPriority = *in.PrayerPriority
	}
	if in.IsAnswered != nil && *in.IsAnswered {
		p.IsAnswered = true
		at := timestamp(now)
		p.DatetimeAnswered = &at
	}
	d.prayers[p.PrayerID] = p
	return p, nil
}

func (d *data) grant(prayerID int64, accessType string, accessTypeID, by int64, now time.Time) *model.PrayerAccess {
	a := &model.PrayerAccess{
		PrayerAccessID: d.id(),
		PrayerID:       prayerID,
		AccessType:     accessType,
		AccessTypeID:   accessTypeID,
		Audit:          audit(by, now),
	}
	d.access[a.PrayerAccessID] = a
	return a
}

func (d *data) createUserPrayer(owner int64, in prayerInput, now time.Time) (int64, int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.createPrayer(owner, in, now)
	if err != nil {
		return 0, 0, err
	}
	a := d.grant(p.PrayerID, model.AccessTypeUser, owner, owner, now)
	return p.PrayerID, a.PrayerAccessID, nil
}

func (d *data) ownedPrayer(prayerID, userID int64) (*model.Prayer, error) {
	p, ok := d.prayers[prayerID]
	if !ok {
		return nil, notFound("prayer")
	}
	if p.UserProfileID != userID {
		return nil, forbidden("only the prayer's creator can change it")
	}
	return p, nil
}

func (d *data) updatePrayer(prayerID, userID int64, in prayerInput, now time.Time) error {
	if err := in.validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.ownedPrayer(prayerID, userID)
	if err != nil {
		return err
	}
	p.Title = in.Title
	p.PrayerDescription = in.PrayerDescription
	p.IsPrivate = in.IsPrivate
	p.PrayerType = in.PrayerType
	if in.PrayerPriority != nil {
		p.PrayerPriority = *in.PrayerPriority
	}
	if in.IsAnswered != nil && *in.IsAnswered != p.IsAnswered {
		p.IsAnswered = *in.IsAnswered
		p.DatetimeAnswered = nil
		if p.IsAnswered {
			at := timestamp(now)
			p.DatetimeAnswered = &at
		}
	}
	if in.PrayerSubjectID != nil {
		s, ok := d.subjects[*in.PrayerSubjectID]
		if !ok || s.UserProfileID != userID {
			return badRequest("unknown prayer subject")
		}
		id := s.PrayerSubjectID
		p.PrayerSubjectID = &id
	}
	touch(&p.Audit, userID, now)
	return nil
}

func (d *data) deletePrayer(prayerID, userID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.ownedPrayer(prayerID, userID); err != nil {
		return err
	}
	d.deletePrayerLocked(prayerID)
	return nil
}

func (d *data) deletePrayerLocked(prayerID int64) {
	delete(d.prayers, prayerID)
	for id, a := range d.access {
		if a.PrayerID == prayerID {
			delete(d.access, id)
		}
	}
	for _, g := range d.groups {
		delete(g.prayerSeq, prayerID)
	}
}

type sequence struct {
	ID              int64
	DisplaySequence int
}

func (d *data) reorderUserPrayers(userID int64, seq []sequence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range seq {
		p, ok := d.prayers[s.ID]
		if !ok || !d.visibleTo(p, userID) {
			return badRequest("unknown prayer in order")
		}
	}
	for _, s := range seq {
		d.prayers[s.ID].DisplaySequence = s.DisplaySequence
	}
	return nil
}

func (d *data) addAccess(prayerID, userID int64, accessType string, targetID int64, now time.Time) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.ownedPrayer(prayerID, userID)
	if err != nil {
		return 0, err
	}
	switch accessType {
	case model.AccessTypeUser:
		if _, ok := d.accounts[targetID]; !ok {
			return 0, notFound("user")
		}
	case model.AccessTypeGroup:
		g, ok := d.groups[targetID]
		if !ok {
			return 0, notFound("group")
		}
		if !g.hasMember(userID) {
			return 0, forbidden("not a member of that group")
		}
	default:
		return 0, badRequest("accessType must be user or group")
	}
	for _, a := range d.access {
		if a.PrayerID == prayerID && a.AccessType == accessType && a.AccessTypeID == targetID {
			return 0, conflict("prayer already shared with that recipient")
		}
	}
	a := d.grant(prayerID, accessType, targetID, userID, now)
	if accessType == model.AccessTypeUser && targetID != userID {
		d.notify(targetID, model.NotificationPrayerShared,
			d.accounts[userID].user.DisplayName()+" shared a prayer with you: "+p.Title, userID, now)
	}
	if accessType == model.AccessTypeGroup {
		g := d.groups[targetID]
		g.prayerSeq[prayerID] = len(g.prayerSeq)
	}
	return a.PrayerAccessID, nil
}

func (d *data) removeAccess(prayerID, accessID, userID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.ownedPrayer(prayerID, userID); err != nil {
		return err
	}
	a, ok := d.access[accessID]
	if !ok || a.PrayerID != prayerID {
		return notFound("access")
	}
	delete(d.access, accessID)
	if a.AccessType == model.AccessTypeGroup {
		if g, ok := d.groups[a.AccessTypeID]; ok {
			delete(g.prayerSeq, prayerID)
		}
	}
	return nil
}

// --- groups ---

func (g *group) hasMember(id int64) bool {
	for _, m := range g.members {
		if m == id {
			return true
		}
	}
	return false
}

func (g *group) removeMember(id int64) {
	out := g.members[:0]
	for _, m := range g.members {
		if m != id {
			out = append(out, m)
		}
	}
	g.members = out
	delete(g.memberSeq, id)
}

type groupInput struct {
	GroupName        string `json:"groupName"`
	GroupDescription string `json:"groupDescription"`
	IsActive         *bool  `json:"isActive"`
}

func (d *data) userGroups(userID int64) []model.Group {
	d.mu.Lock()
	defer d.mu.Unlock()
	type entry struct {
		g   model.Group
		seq int
	}
	var list []entry
	for _, g := range d.groups {
		if g.hasMember(userID) {
			v := g.Group
			v.DisplaySequence = g.memberSeq[userID]
			list = append(list, entry{v, v.DisplaySequence})
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].seq != list[j].seq {
			return list[i].seq < list[j].seq
		}
		return list[i].g.GroupID < list[j].g.GroupID
	})
	out := make([]model.Group, len(list))
	for i, e := range list {
		out[i] = e.g
	}
	return out
}

func (d *data) createGroup(owner int64, in groupInput, now time.Time) (model.Group, error) {
	if strings.TrimSpace(in.GroupName) == "" {
		return model.Group{}, badRequest("groupName is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	g := &group{
		Group: model.Group{
			GroupID:          d.id(),
			GroupName:        in.GroupName,
			GroupDescription: in.GroupDescription,
			IsActive:         in.IsActive == nil || *in.IsActive,
			Audit:            audit(owner, now),
		},
		owner:     owner,
		members:   []int64{owner},
		memberSeq: map[int64]int{owner: d.memberGroupCount(owner)},
		prayerSeq: map[int64]int{},
	}
	d.groups[g.GroupID] = g
	return g.Group, nil
}

func (d *data) memberGroupCount(userID int64) int {
	n := 0
	for _, g := range d.groups {
		if g.hasMember(userID) {
			n++
		}
	}
	return n
}

func (d *data) ownedGroup(groupID, userID int64) (*group, error) {
	g, ok := d.groups[groupID]
	if !ok {
		return nil, notFound("group")
	}
	if g.owner != userID {
		return nil, forbidden("only the group's creator can do that")
	}
	return g, nil
}

func (d *data) memberGroup(groupID, userID int64) (*group, error) {
	g, ok := d.groups[groupID]
	if !ok {
		return nil, notFound("group")
	}
	if !g.hasMember(userID) {
		return nil, forbidden("not a member of this group")
	}
	return g, nil
}

func (d *data) updateGroup(groupID, userID int64, in groupInput, now time.Time) error {
	if strings.TrimSpace(in.GroupName) == "" {
		return badRequest("groupName is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	g, err := d.ownedGroup(groupID, userID)
	if err != nil {
		return err
	}
	g.GroupName = in.GroupName
	g.GroupDescription = in.GroupDescription
	if in.IsActive != nil {
		g.IsActive = *in.IsActive
	}
	touch(&g.Audit, userID, now)
	return nil
}

func (d *data) deleteGroup(groupID, userID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.ownedGroup(groupID, userID); err != nil {
		return err
	}
	d.deleteGroupLocked(groupID)
	return nil
}

func (d *data) deleteGroupLocked(groupID int64) {
	delete(d.groups, groupID)
	for code, id := range d.invites {
		if id == groupID {
			delete(d.invites, code)
		}
	}
	for id, a := range d.access {
		if a.AccessType == model.AccessTypeGroup && a.AccessTypeID == groupID {
			delete(d.access, id)
		}
	}
}

func (d *data) createInvite(groupID, userID int64, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.memberGroup(groupID, userID); err != nil {
		return err
	}
	d.invites[code] = groupID
	return nil
}

func (d *data) joinGroup(groupID, userID int64, code string, now time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.groups[groupID]
	if !ok {
		return notFound("group")
	}
	if d.invites[code] != groupID {
		return forbidden("invalid or expired invite code")
	}
	if g.hasMember(userID) {
		return conflict("already a member of this group")
	}
	g.memberSeq[userID] = d.memberGroupCount(userID)
	g.members = append(g.members, userID)
	d.notify(g.owner, model.NotificationGroupMemberJoined,
		d.accounts[userID].user.DisplayName()+" joined "+g.GroupName, userID, now)
	return nil
}

func (d *data) leaveGroup(groupID, memberID, userID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.groups[groupID]
	if !ok {
		return notFound("group")
	}
	if memberID != userID && g.owner != userID {
		return forbidden("only the group's creator can remove other members")
	}
	if !g.hasMember(memberID) {
		return notFound("member")
	}
	if memberID == g.owner {
		return badRequest("the group's creator cannot leave; delete the group instead")
	}
	g.removeMember(memberID)
	return nil
}

func (d *data) groupUsers(groupID, userID int64) ([]model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, err := d.memberGroup(groupID, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(g.members))
	for _, id := range g.members {
		if a, ok := d.accounts[id]; ok {
			out = append(out, a.user)
		}
	}
	return out, nil
}

func (d *data) groupPrayers(groupID, userID int64) ([]model.Prayer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, err := d.memberGroup(groupID, userID)
	if err != nil {
		return nil, err
	}
	out := []model.Prayer{}
	for id := range g.prayerSeq {
		if p, ok := d.prayers[id]; ok {
			out = append(out, *p)
		}
	}
	sortPrayers(out, func(p model.Prayer) int { return g.prayerSeq[p.PrayerID] })
	return out, nil
}

func (d *data) createGroupPrayer(groupID, userID int64, in prayerInput, now time.Time) (int64, int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, err := d.memberGroup(groupID, userID)
	if err != nil {
		return 0, 0, err
	}
	p, err := d.createPrayer(userID, in, now)
	if err != nil {
		return 0, 0, err
	}
	a := d.grant(p.PrayerID, model.AccessTypeGroup, groupID, userID, now)
	g.prayerSeq[p.PrayerID] = len(g.prayerSeq)
	return p.PrayerID, a.PrayerAccessID, nil
}

func (d *data) reorderUserGroups(userID int64, seq []sequence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range seq {
		if g, ok := d.groups[s.ID]; !ok || !g.hasMember(userID) {
			return badRequest("unknown group in order")
		}
	}
	for _, s := range seq {
		d.groups[s.ID].memberSeq[userID] = s.DisplaySequence
	}
	return nil
}

func (d *data) reorderGroupPrayers(groupID, userID int64, seq []sequence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, err := d.memberGroup(groupID, userID)
	if err != nil {
		return err
	}
	for _, s := range seq {
		if _, ok := g.prayerSeq[s.ID]; !ok {
			return badRequest("unknown prayer in order")
		}
	}
	for _, s := range seq {
		g.prayerSeq[s.ID] = s.DisplaySequence
	}
	return nil
}

// --- prayer subjects ---

type subjectInput struct {
	PrayerSubjectType        *string `json:"prayerSubjectType"`
	PrayerSubjectDisplayName *string `json:"prayerSubjectDisplayName"`
	Notes                    *string `json:"notes"`
	LinkedUserProfileID      *int64  `json:"linkedUserProfileId"`
}

func validSubjectType(t string) bool {
	switch t {
	case model.SubjectIndividual, model.SubjectFamily, model.SubjectGroup:
		return true
	}
	return false
}

func (d *data) prayerSubjects(userID int64) []model.PrayerSubject {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []model.PrayerSubject{}
	for _, s := range d.subjects {
		if s.UserProfileID != userID {
			continue
		}
		v := *s
		v.Prayers = []model.Prayer{}
		for _, p := range d.prayers {
			if p.PrayerSubjectID != nil && *p.PrayerSubjectID == s.PrayerSubjectID {
				v.Prayers = append(v.Prayers, *p)
			}
		}
		sortPrayers(v.Prayers, func(p model.Prayer) int { return p.DisplaySequence })
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DisplaySequence != out[j].DisplaySequence {
			return out[i].DisplaySequence < out[j].DisplaySequence
		}
		return out[i].PrayerSubjectID < out[j].PrayerSubjectID
	})
	return out
}

func (d *data) createSubject(userID int64, in subjectInput, now time.Time) (int64, error) {
	if in.PrayerSubjectDisplayName == nil || strings.TrimSpace(*in.PrayerSubjectDisplayName) == "" {
		return 0, badRequest("prayerSubjectDisplayName is required")
	}
	typ := model.SubjectIndividual
	if in.PrayerSubjectType != nil {
		typ = *in.PrayerSubjectType
	}
	if !validSubjectType(typ) {
		return 0, badRequest("invalid prayerSubjectType")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, s := range d.subjects {
		if s.UserProfileID == userID {
			n++
		}
	}
	s := &model.PrayerSubject{
		PrayerSubjectID:          d.id(),
		UserProfileID:            userID,
		PrayerSubjectType:        typ,
		PrayerSubjectDisplayName: *in.PrayerSubjectDisplayName,
		LinkedUserProfileID:      in.LinkedUserProfileID,
		DisplaySequence:          n,
		Audit:                    audit(userID, now),
	}
	if in.Notes != nil {
		s.Notes = *in.Notes
	}
	d.subjects[s.PrayerSubjectID] = s
	return s.PrayerSubjectID, nil
}

func (d *data) ownedSubject(subjectID, userID int64) (*model.PrayerSubject, error) {
	s, ok := d.subjects[subjectID]
	if !ok {
		return nil, notFound("prayer subject")
	}
	if s.UserProfileID != userID {
		return nil, forbidden("not your prayer subject")
	}
	return s, nil
}

func (d *data) updateSubject(subjectID, userID int64, in subjectInput, now time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.ownedSubject(subjectID, userID)
	if err != nil {
		return err
	}
	if in.PrayerSubjectType != nil {
		if !validSubjectType(*in.PrayerSubjectType) {
			return badRequest("invalid prayerSubjectType")
		}
		s.PrayerSubjectType = *in.PrayerSubjectType
	}
	if in.PrayerSubjectDisplayName != nil {
		if strings.TrimSpace(*in.PrayerSubjectDisplayName) == "" {
			return badRequest("prayerSubjectDisplayName cannot be empty")
		}
		s.PrayerSubjectDisplayName = *in.PrayerSubjectDisplayName
	}
	if in.Notes != nil {
		s.Notes = *in.Notes
	}
	touch(&s.Audit, userID, now)
	return nil
}

func (d *data) deleteSubject(subjectID, userID int64, reassignToSelf bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.ownedSubject(subjectID, userID); err != nil {
		return err
	}
	self := d.accounts[userID].selfID
	if subjectID == self {
		return badRequest("cannot delete your own prayer subject")
	}
	for id, p := range d.prayers {
		if p.PrayerSubjectID == nil || *p.PrayerSubjectID != subjectID {
			continue
		}
		if reassignToSelf {
			s := self
			p.PrayerSubjectID = &s
		} else {
			d.deletePrayerLocked(id)
		}
	}
	delete(d.subjects, subjectID)
	return nil
}

func (d *data) reorderSubjects(userID int64, seq []sequence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range seq {
		if _, err := d.ownedSubject(s.ID, userID); err != nil {
			return badRequest("unknown prayer subject in order")
		}
	}
	for _, s := range seq {
		d.subjects[s.ID].DisplaySequence = s.DisplaySequence
	}
	return nil
}

func (d *data) reorderSubjectPrayers(subjectID, userID int64, seq []sequence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.ownedSubject(subjectID, userID); err != nil {
		return err
	}
	for _, s := range seq {
		p, ok := d.prayers[s.ID]
		if !ok || p.PrayerSubjectID == nil || *p.PrayerSubjectID != subjectID {
			return badRequest("unknown prayer in order")
		}
	}
	for _, s := range seq {
		d.prayers[s.ID].DisplaySequence = s.DisplaySequence
	}
	return nil
}

// --- notifications and preferences ---

func (d *data) notify(userID int64, typ, msg string, by int64, now time.Time) {
	n := &model.Notification{
		NotificationID:      d.id(),
		UserProfileID:       userID,
		NotificationType:    typ,
		NotificationMessage: msg,
		NotificationStatus:  model.NotificationUnread,
		Audit:               audit(by, now),
	}
	d.notifications[n.NotificationID] = n
}

func (d *data) userNotifications(userID int64) []model.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []model.Notification{}
	for _, n := range d.notifications {
		if n.UserProfileID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NotificationID > out[j].NotificationID })
	return out
}

func (d *data) ownedNotification(id, userID int64) (*model.Notification, error) {
	n, ok := d.notifications[id]
	if !ok || n.UserProfileID != userID {
		return nil, notFound("notification")
	}
	return n, nil
}

func (d *data) toggleNotification(id, userID int64, now time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.ownedNotification(id, userID)
	if err != nil {
		return err
	}
	*n = n.Toggled()
	touch(&n.Audit, userID, now)
	return nil
}

func (d *data) deleteNotification(id, userID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.ownedNotification(id, userID); err != nil {
		return err
	}
	delete(d.notifications, id)
	return nil
}

func (d *data) markAllRead(userID int64, now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	for _, n := range d.notifications {
		if n.UserProfileID == userID && n.IsUnread() {
			n.NotificationStatus = model.NotificationRead
			touch(&n.Audit, userID, now)
			count++
		}
	}
	return count
}

func (d *data) userPreferences(userID int64) []model.UserPreference {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []model.UserPreference{}
	for _, p := range d.prefs {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserPreferenceID < out[j].UserPreferenceID })
	return out
}

type preferenceInput struct {
	PreferenceKey   string `json:"preferenceKey"`
	PreferenceValue string `json:"preferenceValue"`
	IsActive        bool   `json:"isActive"`
}

func (d *data) updatePreference(id, userID int64, in preferenceInput, now time.Time) (model.UserPreference, error) {
	if in.PreferenceKey == "" {
		return model.UserPreference{}, badRequest("preferenceKey is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.prefs[id]
	if !ok || p.UserID != userID {
		return model.UserPreference{}, notFound("preference")
	}
	if p.PreferenceKey != in.PreferenceKey {
		return model.UserPreference{}, badRequest("preferenceKey does not match")
	}
	p.PreferenceValue = in.PreferenceValue
	p.IsActive = in.IsActive
	p.DatetimeUpdate = timestamp(now)
	return *p, nil
}
