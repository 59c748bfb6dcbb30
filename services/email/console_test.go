package emailsvc

import (
	"encoding/base64"
	"io/ioutil"
	"log"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidwanic/backend/core"
	logsvc "github.com/vidwanic/backend/services/logger"
)

func Test_consoleServiceMock_sendWithAttachment(t *testing.T) {
	conf := &core.Config{
		TestMode:         true,
		AppName:          "Vidwanic",
		DefaultFromEmail: "noreply@vidwanic.test",
	}
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)
	svc := NewConsoleServiceMock(conf, logger)
	ClearSentMessages()
	defer ClearSentMessages()

	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: "Admin", Address: "admin@vidwanic.test"}},
		Subject: "Monthly order summary",
		BodyStr: "This month's orders are attached.",
	}
	csv := "order_number,total_amount\nORD-000001-AB12,1500\n"
	require.NoError(t, msg.Attach(strings.NewReader(csv), "orders.csv", "text/csv"))

	svc.SendMessages(msg)

	require.Len(t, SentMessages, 1)
	sent := SentMessages[0]
	assert.Equal(t, "This month's orders are attached.", sent.TextContent)

	require.True(t, sent.HasAttachments())
	at := sent.Attachments[0]
	assert.Equal(t, "orders.csv", at.Filename)
	assert.Equal(t, "text/csv", at.ContentType)

	decoded, err := base64.StdEncoding.DecodeString(at.Content.String())
	require.NoError(t, err)
	assert.Equal(t, csv, string(decoded))
}

func Test_consoleServiceMock_skipsEmptyMessage(t *testing.T) {
	conf := &core.Config{
		TestMode:         true,
		AppName:          "Vidwanic",
		DefaultFromEmail: "noreply@vidwanic.test",
	}
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)
	svc := NewConsoleServiceMock(conf, logger)
	ClearSentMessages()
	defer ClearSentMessages()

	svc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: "admin@vidwanic.test"}},
		Subject: "No content",
	})

	assert.Empty(t, SentMessages)
}
