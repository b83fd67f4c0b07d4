package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/existflow/prayerlist/internal/logger"
)

type groupOrder struct {
	Groups []struct {
		GroupID         int64 `json:"groupId"`
		DisplaySequence int   `json:"displaySequence"`
	} `json:"groups"`
}

func newInviteCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

func (s *Server) handleUserGroups(c echo.Context) error {
	return c.JSON(http.StatusOK, s.data.userGroups(caller(c)))
}

func (s *Server) handleReorderUserGroups(c echo.Context) error {
	var in groupOrder
	if err := bind(c, &in); err != nil {
		return reply(c, err, nil)
	}
	seq := make([]sequence, len(in.Groups))
	for i, g := range in.Groups {
		seq[i] = sequence{ID: g.GroupID, DisplaySequence: g.DisplaySequence}
	}
	err := s.data.reorderUserGroups(caller(c), seq)
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Groups reordered")
	})
}

func (s *Server) handleCreateGroup(c echo.Context) error {
	var in groupInput
	if err := bind(c, &in); err != nil {
		return reply(c, err, nil)
	}
	g, err := s.data.createGroup(caller(c), in, s.now())
	return reply(c, err, func() error {
		s.log.Info("Group created", logger.F("group_id", g.GroupID), logger.F("user_id", caller(c)))
		return c.JSON(http.StatusCreated, g)
	})
}

func (s *Server) handleUpdateGroup(c echo.Context) error {
	id, err := pathID(c, "groupId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	var in groupInput
	if err := bind(c, &in); err != nil {
		return reply(c, err, nil)
	}
	err = s.data.updateGroup(id, caller(c), in, s.now())
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Group updated")
	})
}

func (s *Server) handleDeleteGroup(c echo.Context) error {
	id, err := pathID(c, "groupId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	err = s.data.deleteGroup(id, caller(c))
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Group deleted")
	})
}

func (s *Server) handleCreateInvite(c echo.Context) error {
	id, err := pathID(c, "groupId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	code := newInviteCode()
	err = s.data.createInvite(id, caller(c), code)
	return reply(c, err, func() error {
		return c.JSON(http.StatusCreated, map[string]string{"message": "Invite created", "inviteCode": code})
	})
}

func (s *Server) handleJoinGroup(c echo.Context) error {
	id, err := pathID(c, "groupId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	var in struct {
		InviteCode string `json:"inviteCode"`
	}
	if err := bind(c, &in); err != nil {
		return reply(c, err, nil)
	}
	err = s.data.joinGroup(id, caller(c), strings.ToUpper(strings.TrimSpace(in.InviteCode)), s.now())
	return reply(c, err, func() error {
		s.log.Info("Group joined", logger.F("group_id", id), logger.F("user_id", caller(c)))
		return message(c, http.StatusOK, "Joined group")
	})
}

// handleLeaveGroup removes a member. Members may remove themselves; the
// creator may remove anyone else.
func (s *Server) handleLeaveGroup(c echo.Context) error {
	id, err := pathID(c, "groupId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	member, err := pathID(c, "memberId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	err = s.data.leaveGroup(id, member, caller(c))
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Left group")
	})
}

func (s *Server) handleGroupUsers(c echo.Context) error {
	id, err := pathID(c, "groupId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	users, err := s.data.groupUsers(id, caller(c))
	return reply(c, err, func() error {
		return c.JSON(http.StatusOK, users)
	})
}

func (s *Server) handleGroupPrayers(c echo.Context) error {
	id, err := pathID(c, "groupId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	list, err := s.data.groupPrayers(id, caller(c))
	return reply(c, err, func() error {
		return c.JSON(http.StatusOK, prayerList{Message: "Prayers retrieved", Prayers: list})
	})
}

func (s *Server) handleCreateGroupPrayer(c echo.Context) error {
	id, err := pathID(c, "groupId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	var in prayerInput
	if err := bind(c, &in); err != nil {
		return reply(c, err, nil)
	}
	prayerID, accessID, err := s.data.createGroupPrayer(id, caller(c), in, s.now())
	return reply(c, err, func() error {
		return c.JSON(http.StatusCreated, createdPrayer{
			Message:        "Prayer created",
			PrayerID:       prayerID,
			PrayerAccessID: accessID,
		})
	})
}

func (s *Server) handleReorderGroupPrayers(c echo.Context) error {
	id, err := pathID(c, "groupId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	var in prayerOrder
	if err := bind(c, &in); err != nil {
		return reply(c, err, nil)
	}
	err = s.data.reorderGroupPrayers(id, caller(c), in.sequence())
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Prayers reordered")
	})
}
