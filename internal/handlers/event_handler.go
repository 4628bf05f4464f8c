package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/raihanpk/tiketku/internal/helpers"
	"github.com/raihanpk/tiketku/internal/ledger"
	"github.com/raihanpk/tiketku/internal/models"
)

func ListEvents(c *gin.Context) {
	gormDB, ok := databaseFrom(c)
	if !ok {
		return
	}

	var events []models.Event
	if err := gormDB.Order("start_time ASC").Find(&events).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving events.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

func GetEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	gormDB, ok := databaseFrom(c)
	if !ok {
		return
	}
	led, ok := ledgerFrom(c)
	if !ok {
		return
	}

	var event models.Event
	if err := gormDB.Preload("TicketTypes").First(&event, "id = ?", eventID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"event":        event,
		"availability": ticketAvailability(led, event.TicketTypes),
	})
}

// ticketAvailability builds the live availability map from the ledger,
// never from catalog rows. A ticket type missing from the ledger is a
// registration gap at startup; it stays visible as a zeroed snapshot
// instead of disappearing from the response.
func ticketAvailability(led *ledger.Ledger, ticketTypes []models.TicketType) map[string]ledger.Snapshot {
	availability := make(map[string]ledger.Snapshot, len(ticketTypes))
	for _, ticketType := range ticketTypes {
		snap, err := led.Snapshot(ticketType.ID)
		if err != nil {
			log.Printf("ticket type %s: not in ledger: %v", ticketType.ID, err)
			availability[ticketType.ID.String()] = ledger.Snapshot{}
			continue
		}
		availability[ticketType.ID.String()] = snap
	}
	return availability
}
