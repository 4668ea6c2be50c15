package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/logger"
)

func privateText(updateID int, userID int64) tele.Context {
	return tele.NewContext(nil, tele.Update{
		ID: updateID,
		Message: &tele.Message{
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
			Text:   "hello",
		},
	})
}

func TestMetaOf(t *testing.T) {
	m := MetaOf(privateText(7, 42))
	assert.Equal(t, 7, m.UpdateID)
	assert.Equal(t, int64(42), m.UserID)
	assert.Equal(t, int64(42), m.ChatID)
	assert.Equal(t, logger.BuildRID(7, 42, 42), m.RID)
}

func TestBuildContextIsCached(t *testing.T) {
	c := privateText(8, 5)
	first := BuildContext(c)
	assert.Equal(t, first, BuildContext(c))
	assert.Equal(t, int64(5), logger.UserIDFrom(first))
	assert.NotEmpty(t, logger.RIDFrom(first))
}

func TestWithHandlerTagsCachedContext(t *testing.T) {
	c := privateText(9, 5)
	ctx := WithHandler(c, "text")
	assert.Equal(t, "text", logger.HandlerFrom(ctx))
	assert.Equal(t, "text", logger.HandlerFrom(BuildContext(c)))
}
