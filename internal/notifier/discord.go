package notifier

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/badminton-api/internal/models"
)

// Notifier announces event and registration changes. Callers treat delivery
// as best effort: a returned error is logged, never surfaced to the client.
type Notifier interface {
	NotifyEventStatus(event models.Event, previous models.EventStatus) error
	NotifyRegistration(user models.User, event models.Event, registration models.Registration) error
}

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

func (n *DiscordNotifier) NotifyEventStatus(event models.Event, previous models.EventStatus) error {
	return n.send(eventStatusMessage(event, previous))
}

func (n *DiscordNotifier) NotifyRegistration(user models.User, event models.Event, registration models.Registration) error {
	return n.send(registrationMessage(user, event, registration))
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	if _, err := n.session.ChannelMessageSend(n.channelID, message); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}

func eventStatusMessage(event models.Event, previous models.EventStatus) string {
	icon := "📣"
	switch event.Status {
	case models.EventActive:
		icon = "🏸"
	case models.EventCancelled:
		icon = "🚫"
	case models.EventCompleted:
		icon = "🏁"
	}
	return fmt.Sprintf("%s **Event Update**\n**Event:** %s\n**Status:** %s → %s\n**When:** %s - %s\n**Courts:** %d",
		icon,
		event.Name,
		previous,
		event.Status,
		event.StartTime.Format("2006-01-02 15:04"),
		event.EndTime.Format("15:04"),
		event.CourtCount,
	)
}

func registrationMessage(user models.User, event models.Event, registration models.Registration) string {
	status := "registered"
	if registration.Status == models.RegistrationCancelled {
		status = "cancelled registration 😢 👎"
	}

	mention := ""
	if user.DiscordID != nil {
		mention = fmt.Sprintf(" (<@%s>)", *user.DiscordID)
	}

	return fmt.Sprintf("🎉 **Registration Update**\n**Player:** %s%s\n**Event:** %s\n**Status:** %s\n**Skill Level:** %d",
		user.Name,
		mention,
		event.Name,
		status,
		registration.SkillLevel,
	)
}
