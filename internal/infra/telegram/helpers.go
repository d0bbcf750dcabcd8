package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"binome_rotation_bot/internal/app"
	"binome_rotation_bot/internal/domain/section"
	idb "binome_rotation_bot/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	msgUnauthorized = "Erreur : vous n'avez pas les droits pour exécuter cette commande."
	msgInternal     = "Une erreur est survenue. Veuillez réessayer plus tard."

	// Telegram rejects messages above 4096 characters.
	maxMessageLen = 4000

	callbackCurrent = "cur_"
	callbackReport  = "rep_"
)

func senderID(c telebot.Context) int64 {
	if c.Sender() == nil {
		return 0
	}
	return c.Sender().ID
}

func commandLogger(base *logrus.Entry, command string, c telebot.Context) *logrus.Entry {
	return base.WithFields(logrus.Fields{
		"handler":    command,
		"sender_id":  senderID(c),
		"request_id": uuid.NewString(),
	})
}

// resolveSection reads the section id argument. On failure the returned
// section is nil and the string is the reply for the user.
func resolveSection(ctx context.Context, adminService *app.AdminService, raw, command string, log *logrus.Entry) (*section.Section, string) {
	sec, err := adminService.ResolveSection(ctx, raw)
	switch {
	case err == nil:
		return sec, ""
	case errors.Is(err, app.ErrSectionRequired), errors.Is(err, app.ErrInvalidSectionID):
		log.WithError(err).WithField("arg", raw).Warn("Invalid section argument")
		return nil, fmt.Sprintf("Format invalide. Utilisez : %s <idSection>", command)
	case errors.Is(err, idb.ErrSectionNotFound):
		log.WithField("arg", raw).Warn("Section not found")
		return nil, fmt.Sprintf("Section %s introuvable. Utilisez /sections pour la liste.", strings.TrimSpace(raw))
	default:
		log.WithError(err).Error("Failed to resolve section")
		return nil, msgInternal
	}
}

func firstArg(c telebot.Context) string {
	if args := c.Args(); len(args) > 0 {
		return args[0]
	}
	return ""
}

func sectionMarkup(sectionID int64) *telebot.ReplyMarkup {
	id := strconv.FormatInt(sectionID, 10)
	markup := &telebot.ReplyMarkup{}
	markup.Inline(markup.Row(
		telebot.Btn{Text: "Binômes", Data: callbackCurrent + id},
		telebot.Btn{Text: "Rapport", Data: callbackReport + id},
	))
	return markup
}

// parseCallback splits "rep_12" into its prefix and section id.
func parseCallback(data string) (string, int64, error) {
	for _, prefix := range []string{callbackCurrent, callbackReport} {
		if !strings.HasPrefix(data, prefix) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
		if err != nil || id <= 0 {
			return "", 0, fmt.Errorf("invalid section id in callback data %q", data)
		}
		return prefix, id, nil
	}
	return "", 0, fmt.Errorf("unknown callback data %q", data)
}

// splitMessage cuts text on line boundaries into chunks of at most limit bytes.
// A single line longer than limit is cut on a rune boundary.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	var current strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				// no rune start within limit, invalid UTF-8
				cut = limit
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if current.Len()+len(line) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// sendLong sends text in as many messages as needed. The markup goes with the last one.
func sendLong(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	chunks := splitMessage(text, maxMessageLen)
	for i, chunk := range chunks {
		if i == len(chunks)-1 && markup != nil {
			return c.Send(chunk, markup)
		}
		if err := c.Send(chunk); err != nil {
			return err
		}
	}
	return nil
}
