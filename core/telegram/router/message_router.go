package router

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/middleware"
)

// MediaEndpoints are the non-text update kinds routed to MessageOptions.Media.
var MediaEndpoints = []string{
	tele.OnPhoto,
	tele.OnDocument,
	tele.OnAudio,
	tele.OnVoice,
	tele.OnVideo,
	tele.OnVideoNote,
	tele.OnAnimation,
	tele.OnSticker,
	tele.OnContact,
	tele.OnLocation,
}

// MessageOptions holds the handlers for plain messages.
type MessageOptions struct {
	// Text receives every text message that is not a command.
	Text tele.HandlerFunc
	// Media receives every update listed in MediaEndpoints.
	Media tele.HandlerFunc
}

// MessageRoutes builds the text and media routes.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()
		text := strings.TrimSpace(c.Text())

		if reg != nil && strings.HasPrefix(text, "/") {
			name, _, _ := strings.Cut(text, " ")
			if key, cmd, ok := reg.LookupCommand(name); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return handleWithSummary(c, normalizeHandlerName(key), start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
			// Unknown commands are not conversation input.
			logHandlerSummary(c, "unknown_command", start, "skip", "ok", nil)
			return nil
		}

		if opts.Text == nil {
			logHandlerSummary(c, "text", start, "skip", "ok", nil)
			return nil
		}
		return handleWithSummary(c, "text", start, "", "", func() error {
			return opts.Text(c)
		})
	}

	mediaHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.Media == nil {
			logHandlerSummary(c, "media", start, "skip", "ok", nil)
			return nil
		}
		return handleWithSummary(c, "media", start, "", "", func() error {
			return opts.Media(c)
		})
	}

	routes := []tg.Route{{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(textHandler)),
	}}
	wrappedMedia := middleware.RecoverMiddleware(middleware.LoggerMiddleware(mediaHandler))
	for _, ep := range MediaEndpoints {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: wrappedMedia})
	}
	return routes
}

// MediaKind names the content type of a non-text message, e.g. "photo".
func MediaKind(m *tele.Message) string {
	if m == nil {
		return "unknown"
	}
	switch {
	case m.Photo != nil:
		return "photo"
	case m.Document != nil:
		return "document"
	case m.Audio != nil:
		return "audio"
	case m.Voice != nil:
		return "voice"
	case m.Video != nil:
		return "video"
	case m.VideoNote != nil:
		return "video_note"
	case m.Animation != nil:
		return "animation"
	case m.Sticker != nil:
		return "sticker"
	case m.Contact != nil:
		return "contact"
	case m.Location != nil:
		return "location"
	}
	return "unknown"
}
