package telegram

import (
	"context"
	"time"

	"binome_rotation_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const commandTimeout = 30 * time.Second

// RegisterRotationHandlers registers the cycle commands. /generate and /rotate
// replace the active cycle and are restricted to the configured admin.
func RegisterRotationHandlers(
	ctx context.Context,
	b *telebot.Bot,
	adminService *app.AdminService,
	rotationService *app.RotationService,
	reportService *app.ReportService,
	baseLogger *logrus.Entry,
) {
	b.Handle("/current", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/current", c)
		handlerLogger.Info("Command received")

		cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()

		sec, reply := resolveSection(cmdCtx, adminService, firstArg(c), "/current", handlerLogger)
		if sec == nil {
			return c.Send(reply)
		}
		handlerLogger = handlerLogger.WithField("section_id", sec.ID)

		report, err := reportService.Build(cmdCtx, sec.ID)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to load current cycle")
			return c.Send(msgInternal)
		}
		return sendLong(c, FormatCurrent(sec, report), sectionMarkup(sec.ID))
	})

	b.Handle("/report", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/report", c)
		handlerLogger.Info("Command received")

		cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()

		sec, reply := resolveSection(cmdCtx, adminService, firstArg(c), "/report", handlerLogger)
		if sec == nil {
			return c.Send(reply)
		}
		handlerLogger = handlerLogger.WithField("section_id", sec.ID)

		report, err := reportService.Build(cmdCtx, sec.ID)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to build report")
			return c.Send(msgInternal)
		}
		handlerLogger.WithFields(logrus.Fields{
			"pairs":   len(report.Pairs),
			"singles": len(report.Singles),
		}).Info("Report built")
		return sendLong(c, FormatReport(sec, report), nil)
	})

	b.Handle("/status", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/status", c)

		cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()

		sec, reply := resolveSection(cmdCtx, adminService, firstArg(c), "/status", handlerLogger)
		if sec == nil {
			return c.Send(reply)
		}

		status, err := rotationService.Status(cmdCtx, sec.ID)
		if err != nil {
			handlerLogger.WithError(err).WithField("section_id", sec.ID).Error("Failed to get cycle status")
			return c.Send(msgInternal)
		}
		if status == nil {
			return c.Send(FormatStatus(sec, nil))
		}
		return c.Send(FormatStatus(sec, status), sectionMarkup(sec.ID))
	})

	replaceHandler := func(command, title string, run func(context.Context, int64) (*app.CycleView, error)) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			handlerLogger := commandLogger(baseLogger, command, c)
			handlerLogger.Info("Command received")

			if err := adminService.Authorize(senderID(c)); err != nil {
				handlerLogger.Warn("Unauthorized access attempt")
				return c.Send(msgUnauthorized)
			}

			cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
			defer cancel()

			sec, reply := resolveSection(cmdCtx, adminService, firstArg(c), command, handlerLogger)
			if sec == nil {
				return c.Send(reply)
			}
			handlerLogger = handlerLogger.WithField("section_id", sec.ID)

			view, err := run(cmdCtx, sec.ID)
			if err != nil {
				handlerLogger.WithError(err).Error("Failed to replace active cycle")
				return c.Send("Impossible de créer le nouveau cycle. Le cycle précédent reste actif, veuillez réessayer.")
			}
			handlerLogger.WithFields(logrus.Fields{
				"cycle_id": view.Cycle.ID,
				"pairs":    len(view.Pairs),
				"solos":    len(view.Solos),
			}).Info("Cycle replaced by admin")

			report, err := reportService.Build(cmdCtx, sec.ID)
			if err != nil {
				handlerLogger.WithError(err).Error("Failed to load new cycle")
				return c.Send(title + "\nLe détail n'a pas pu être chargé, utilisez /current.")
			}
			return sendLong(c, title+"\n\n"+FormatCurrent(sec, report), sectionMarkup(sec.ID))
		}
	}

	b.Handle("/generate", replaceHandler("/generate", "Nouveau cycle créé (tirage aléatoire).", rotationService.Generate))
	b.Handle("/rotate", replaceHandler("/rotate", "Nouveau cycle créé (rotation par présence).", rotationService.Rotate))
}
