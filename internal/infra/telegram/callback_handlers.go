package telegram

import (
	"context"
	"fmt"
	"strconv"

	"binome_rotation_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterCallbackHandlers answers the inline buttons attached by the cycle commands.
func RegisterCallbackHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, reportService *app.ReportService, baseLogger *logrus.Entry) {
	b.Handle(telebot.OnCallback, func(c telebot.Context) error {
		data := c.Callback().Data
		handlerLogger := commandLogger(baseLogger, "callback", c).WithField("data", data)

		prefix, sectionID, err := parseCallback(data)
		if err != nil {
			c.Bot().OnError(err, c)
			return c.Respond(&telebot.CallbackResponse{Text: "Action inconnue."})
		}

		cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()

		sec, reply := resolveSection(cmdCtx, adminService, strconv.FormatInt(sectionID, 10), "/current", handlerLogger)
		if sec == nil {
			return c.Respond(&telebot.CallbackResponse{Text: reply})
		}

		report, err := reportService.Build(cmdCtx, sec.ID)
		if err != nil {
			c.Bot().OnError(fmt.Errorf("error building report for section %d: %w", sec.ID, err), c)
			return c.Respond(&telebot.CallbackResponse{Text: "Une erreur est survenue."})
		}

		text := FormatCurrent(sec, report)
		if prefix == callbackReport {
			text = FormatReport(sec, report)
		}
		if err := sendLong(c, text, nil); err != nil {
			return err
		}
		return c.Respond()
	})
}
