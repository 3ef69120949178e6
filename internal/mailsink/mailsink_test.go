package mailsink

import (
	"net"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSink(t *testing.T, opts Options) (*Inbox, string) {
	t.Helper()
	inbox := NewInbox(10)
	b, err := NewBackend(opts, inbox, nil)
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := NewServer(b)
	go Serve(srv, l)
	t.Cleanup(func() { srv.Close() })
	return inbox, l.Addr().String()
}

const rawMail = "From: noreply@ecofy.app\r\n" +
	"To: asha@x.com\r\n" +
	"Subject: Ecofy - Password Reset OTP\r\n" +
	"\r\n" +
	"Your Ecofy password reset code is 482913.\r\n"

func TestSinkCapturesMessage(t *testing.T) {
	dir := t.TempDir()
	inbox, addr := startSink(t, Options{SpoolDir: dir})

	err := smtp.SendMail(addr, nil, "noreply@ecofy.app", []string{"asha@x.com"}, []byte(rawMail))
	require.NoError(t, err)

	msgs := inbox.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "noreply@ecofy.app", msgs[0].From)
	assert.Equal(t, []string{"asha@x.com"}, msgs[0].To)
	assert.Equal(t, "Ecofy - Password Reset OTP", msgs[0].Subject)
	assert.Equal(t, "482913", msgs[0].OTP)

	spool, err := NewSpool(dir)
	require.NoError(t, err)
	ids, err := spool.List()
	require.NoError(t, err)
	require.Equal(t, []string{msgs[0].ID}, ids)
	data, err := spool.Load(ids[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "482913"))
}

func TestSinkRequiresAuthWhenConfigured(t *testing.T) {
	inbox, addr := startSink(t, Options{Username: "dev", Password: "pw"})

	err := smtp.SendMail(addr, nil, "a@x.com", []string{"b@x.com"}, []byte(rawMail))
	assert.Error(t, err)
	assert.Empty(t, inbox.Messages())
}

func TestInboxLimit(t *testing.T) {
	in := NewInbox(2)
	in.add(Message{ID: "1"})
	in.add(Message{ID: "2"})
	in.add(Message{ID: "3"})
	msgs := in.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "2", msgs[0].ID)
}
