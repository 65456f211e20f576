package sendactivationnotice

import (
	"context"
	"errors"
	"testing"
	"time"

	"business-workers/internal/common/aws"
	apperrors "business-workers/internal/common/errors"
	"business-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeEmail struct {
	sent []aws.Email
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, msg aws.Email) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "ses-1", nil
}

type fakeSMS struct {
	phones   []string
	messages []string
	err      error
}

func (f *fakeSMS) SendSMS(_ context.Context, phone, message string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.phones = append(f.phones, phone)
	f.messages = append(f.messages, message)
	return "sns-1", nil
}

func createTestConfig() *Config {
	return &Config{
		Timeout:          time.Second,
		EmailEnabled:     true,
		SMSEnabled:       true,
		DirectoryBaseURL: "https://business.example/b/",
	}
}

func createInput() *Input {
	return &Input{
		BusinessProfileID: "profile-1",
		BusinessName:      "سوبر ماركت النور",
		BusinessNumber:    "BIZ-2026-0007",
		Slug:              "swbr-markt-alnwr",
		OwnerEmail:        "owner@alnoor.example",
		OwnerPhone:        "+966500000001",
		NotifyEmail:       true,
		NotifySMS:         true,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_BothChannels(t *testing.T) {
	email, sms := &fakeEmail{}, &fakeSMS{}
	h := NewHandler(createTestConfig(), email, sms, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), createInput())
	require.NoError(t, err)

	assert.True(t, out.EmailSent)
	assert.Equal(t, "ses-1", out.EmailMessageID)
	assert.True(t, out.SMSSent)
	assert.Equal(t, "sns-1", out.SMSMessageID)

	require.Len(t, email.sent, 1)
	assert.Equal(t, "owner@alnoor.example", email.sent[0].To)
	assert.Contains(t, email.sent[0].Text, "BIZ-2026-0007")
	assert.Contains(t, email.sent[0].Text, "https://business.example/b/swbr-markt-alnwr")

	require.Len(t, sms.phones, 1)
	assert.Equal(t, "+966500000001", sms.phones[0])
	assert.Contains(t, sms.messages[0], "BIZ-2026-0007")
}

func TestHandler_Execute_ChannelSelection(t *testing.T) {
	tests := []struct {
		name      string
		config    func(c *Config)
		input     func(in *Input)
		wantEmail bool
		wantSMS   bool
	}{
		{"sms preference off", nil, func(in *Input) { in.NotifySMS = false }, true, false},
		{"no owner email", nil, func(in *Input) { in.OwnerEmail = "" }, false, true},
		{"email preference off", nil, func(in *Input) { in.NotifyEmail = false }, false, true},
		{"sms disabled by config", func(c *Config) { c.SMSEnabled = false }, nil, true, false},
		{"email disabled by config", func(c *Config) { c.EmailEnabled = false }, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig()
			if tt.config != nil {
				tt.config(cfg)
			}
			in := createInput()
			if tt.input != nil {
				tt.input(in)
			}

			email, sms := &fakeEmail{}, &fakeSMS{}
			out, err := NewHandler(cfg, email, sms, logger.NewTestLogger(t)).Execute(context.Background(), in)
			require.NoError(t, err)

			assert.Equal(t, tt.wantEmail, out.EmailSent)
			assert.Equal(t, tt.wantSMS, out.SMSSent)
			assert.Equal(t, tt.wantEmail, len(email.sent) == 1)
			assert.Equal(t, tt.wantSMS, len(sms.phones) == 1)
		})
	}
}

func TestHandler_Execute_NilSenders(t *testing.T) {
	out, err := NewHandler(createTestConfig(), nil, nil, logger.NewTestLogger(t)).
		Execute(context.Background(), createInput())
	require.NoError(t, err)
	assert.False(t, out.EmailSent)
	assert.False(t, out.SMSSent)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_SendFailures(t *testing.T) {
	t.Run("email", func(t *testing.T) {
		h := NewHandler(createTestConfig(), &fakeEmail{err: errors.New("throttled")}, &fakeSMS{}, logger.NewTestLogger(t))
		_, err := h.Execute(context.Background(), createInput())
		require.Error(t, err)

		stdErr := apperrors.Normalize(err)
		assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, stdErr.Code)
		assert.True(t, stdErr.Retryable)
		assert.Contains(t, stdErr.Details, "channel: email")
	})

	t.Run("sms", func(t *testing.T) {
		h := NewHandler(createTestConfig(), &fakeEmail{}, &fakeSMS{err: errors.New("opted out")}, logger.NewTestLogger(t))
		_, err := h.Execute(context.Background(), createInput())
		require.Error(t, err)
		assert.Contains(t, apperrors.Normalize(err).Details, "channel: sms")
	})
}

func TestHandler_Execute_MissingFields(t *testing.T) {
	in := createInput()
	in.BusinessNumber = ""

	_, err := NewHandler(createTestConfig(), &fakeEmail{}, &fakeSMS{}, logger.NewTestLogger(t)).
		Execute(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.Normalize(err).Code)
}
