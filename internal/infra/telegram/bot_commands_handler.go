// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"fmt"
	"strings"

	"binome_rotation_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func helpText(isAdmin bool) string {
	var help strings.Builder
	help.WriteString("Commandes disponibles :\n\n")
	help.WriteString("/sections\n - Lister les sections et leurs identifiants.\n\n")
	help.WriteString("/current <idSection>\n - Afficher les binômes du cycle actif.\n\n")
	help.WriteString("/report <idSection>\n - Afficher les binômes avec leurs présences communes.\n\n")
	help.WriteString("/status <idSection>\n - Afficher le cycle actif et la date de la prochaine rotation.\n\n")
	if isAdmin {
		help.WriteString("Commandes administrateur :\n\n")
		help.WriteString("/generate <idSection>\n - Remplacer le cycle actif par un tirage aléatoire.\n\n")
		help.WriteString("/rotate <idSection>\n - Remplacer le cycle actif en associant les plus présents aux moins présents.\n\n")
	}
	help.WriteString("/help\n - Afficher ce message.")
	return help.String()
}

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	adminService *app.AdminService,
	baseLogger *logrus.Entry,
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		logCtx := commandLogger(startHelpLogger, "/start", c)
		logCtx.Info("Processing /start command")

		firstName := ""
		if c.Sender() != nil {
			firstName = c.Sender().FirstName
		}
		if adminService.Authorize(senderID(c)) == nil {
			logCtx.Info("User identified as Admin")
			return c.Send(fmt.Sprintf("Bonjour %s ! Vous êtes administrateur. Utilisez /help pour la liste des commandes.", firstName))
		}
		return c.Send(fmt.Sprintf("Bonjour %s ! Je gère les binômes des sections. Utilisez /help pour la liste des commandes.", firstName))
	})

	b.Handle("/help", func(c telebot.Context) error {
		logCtx := commandLogger(startHelpLogger, "/help", c)
		logCtx.Info("Processing /help command")

		return c.Send(helpText(adminService.Authorize(senderID(c)) == nil))
	})

	b.Handle("/sections", func(c telebot.Context) error {
		logCtx := commandLogger(baseLogger, "/sections", c)

		cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()

		sections, err := adminService.ListSections(cmdCtx)
		if err != nil {
			logCtx.WithError(err).Error("Failed to list sections")
			return c.Send(msgInternal)
		}
		logCtx.WithField("sections_count", len(sections)).Info("Sections listed")
		return sendLong(c, FormatSections(sections), nil)
	})
}
