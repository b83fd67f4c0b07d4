package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/existflow/prayerlist/internal/logger"
	"github.com/existflow/prayerlist/internal/model"
)

type prayerOrder struct {
	Prayers []struct {
		PrayerID        int64 `json:"prayerId"`
		DisplaySequence int   `json:"displaySequence"`
	} `json:"prayers"`
}

func (o prayerOrder) sequence() []sequence {
	out := make([]sequence, len(o.Prayers))
	for i, p := range o.Prayers {
		out[i] = sequence{ID: p.PrayerID, DisplaySequence: p.DisplaySequence}
	}
	return out
}

type prayerList struct {
	Message string         `json:"message"`
	Prayers []model.Prayer `json:"prayers"`
}

type createdPrayer struct {
	Message        string `json:"message"`
	PrayerID       int64  `json:"prayerId"`
	PrayerAccessID int64  `json:"prayerAccessId"`
}

func (s *Server) handleUserPrayers(c echo.Context) error {
	list := s.data.userPrayers(caller(c))
	return c.JSON(http.StatusOK, prayerList{Message: "Prayers retrieved", Prayers: list})
}

func (s *Server) handleCreateUserPrayer(c echo.Context) error {
	var in prayerInput
	if err := bind(c, &in); err != nil {
		return reply(c, err, nil)
	}
	prayerID, accessID, err := s.data.createUserPrayer(caller(c), in, s.now())
	return reply(c, err, func() error {
		s.log.Debug("Prayer created", logger.F("prayer_id", prayerID), logger.F("user_id", caller(c)))
		return c.JSON(http.StatusCreated, createdPrayer{
			Message:        "Prayer created",
			PrayerID:       prayerID,
			PrayerAccessID: accessID,
		})
	})
}

func (s *Server) handleReorderUserPrayers(c echo.Context) error {
	var in prayerOrder
	if err := bind(c, &in); err != nil {
		return reply(c, err, nil)
	}
	err := s.data.reorderUserPrayers(caller(c), in.sequence())
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Prayers reordered")
	})
}

func (s *Server) handleUpdatePrayer(c echo.Context) error {
	id, err := pathID(c, "prayerId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	var in prayerInput
	if err := bind(c, &in); err != nil {
		return reply(c, err, nil)
	}
	err = s.data.updatePrayer(id, caller(c), in, s.now())
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Prayer updated")
	})
}

func (s *Server) handleDeletePrayer(c echo.Context) error {
	id, err := pathID(c, "prayerId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	err = s.data.deletePrayer(id, caller(c))
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Prayer deleted")
	})
}

func (s *Server) handleAddAccess(c echo.Context) error {
	id, err := pathID(c, "prayerId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	var in struct {
		AccessType   string `json:"accessType"`
		AccessTypeID int64  `json:"accessTypeId"`
	}
	if err := bind(c, &in); err != nil {
		return reply(c, err, nil)
	}
	accessID, err := s.data.addAccess(id, caller(c), in.AccessType, in.AccessTypeID, s.now())
	return reply(c, err, func() error {
		return c.JSON(http.StatusCreated, map[string]any{
			"message":        "Prayer shared",
			"prayerAccessId": accessID,
		})
	})
}

func (s *Server) handleRemoveAccess(c echo.Context) error {
	id, err := pathID(c, "prayerId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	accessID, err := pathID(c, "accessId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	err = s.data.removeAccess(id, accessID, caller(c))
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Access removed")
	})
}
