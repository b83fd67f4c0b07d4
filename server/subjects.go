package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type subjectOrder struct {
	PrayerSubjects []struct {
		PrayerSubjectID int64 `json:"prayerSubjectId"`
		DisplaySequence int   `json:"displaySequence"`
	} `json:"prayerSubjects"`
}

func (s *Server) handlePrayerSubjects(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message":        "Prayer subjects retrieved",
		"prayerSubjects": s.data.prayerSubjects(caller(c)),
	})
}

func (s *Server) handleCreatePrayerSubject(c echo.Context) error {
	var in subjectInput
	if err := bind(c, &in); err != nil {
		return reply(c, err, nil)
	}
	id, err := s.data.createSubject(caller(c), in, s.now())
	return reply(c, err, func() error {
		return c.JSON(http.StatusCreated, map[string]any{
			"message":         "Prayer subject created",
			"prayerSubjectId": id,
		})
	})
}

func (s *Server) handleUpdatePrayerSubject(c echo.Context) error {
	id, err := pathID(c, "subjectId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	var in subjectInput
	if err := bind(c, &in); err != nil {
		return reply(c, err, nil)
	}
	err = s.data.updateSubject(id, caller(c), in, s.now())
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Prayer subject updated")
	})
}

// handleDeletePrayerSubject deletes the subject's prayers too, unless
// reassignToSelf moves them to the caller's own subject.
func (s *Server) handleDeletePrayerSubject(c echo.Context) error {
	id, err := pathID(c, "subjectId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	reassign := c.QueryParam("reassignToSelf") == "true"
	err = s.data.deleteSubject(id, caller(c), reassign)
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Prayer subject deleted")
	})
}

func (s *Server) handleReorderPrayerSubjects(c echo.Context) error {
	var in subjectOrder
	if err := bind(c, &in); err != nil {
		return reply(c, err, nil)
	}
	seq := make([]sequence, len(in.PrayerSubjects))
	for i, ps := range in.PrayerSubjects {
		seq[i] = sequence{ID: ps.PrayerSubjectID, DisplaySequence: ps.DisplaySequence}
	}
	err := s.data.reorderSubjects(caller(c), seq)
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Prayer subjects reordered")
	})
}

func (s *Server) handleReorderSubjectPrayers(c echo.Context) error {
	id, err := pathID(c, "subjectId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	var in prayerOrder
	if err := bind(c, &in); err != nil {
		return reply(c, err, nil)
	}
	err = s.data.reorderSubjectPrayers(id, caller(c), in.sequence())
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Prayers reordered")
	})
}
