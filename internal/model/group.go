package model

// Group is a prayer circle shared by several users
type Group struct {
	GroupID          int64  `json:"groupId"`
	GroupName        string `json:"groupName"`
	GroupDescription string `json:"groupDescription"`
	IsActive         bool   `json:"isActive"`
	DisplaySequence  int    `json:"displaySequence"`
	Audit
}

// GroupInvite is a join code issued for a group
type GroupInvite struct {
	GroupID    int64  `json:"groupId"`
	InviteCode string `json:"inviteCode"`
}
