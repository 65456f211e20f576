package aws

import (
	"context"
	stderrors "errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	in  *ses.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: awssdk.String("ses-1")}, nil
}

type fakeSNS struct {
	in  *sns.PublishInput
	err error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: awssdk.String("sns-1")}, nil
}

func TestSESClient_SendEmail(t *testing.T) {
	api := &fakeSES{}
	client := &SESClient{api: api, from: "no-reply@business.example"}

	id, err := client.SendEmail(context.Background(), Email{
		To:      "owner@example.com",
		Subject: "تم تفعيل نشاطك",
		Text:    "BIZ-2026-0001",
	})
	require.NoError(t, err)
	assert.Equal(t, "ses-1", id)
	assert.Equal(t, "no-reply@business.example", awssdk.ToString(api.in.Source))
	assert.Equal(t, []string{"owner@example.com"}, api.in.Destination.ToAddresses)
	assert.Nil(t, api.in.Message.Body.Html)

	api.err = stderrors.New("throttled")
	_, err = client.SendEmail(context.Background(), Email{To: "x@example.com"})
	assert.ErrorContains(t, err, "ses send failed")
}

func TestSNSClient_SendSMS(t *testing.T) {
	api := &fakeSNS{}
	client := &SNSClient{api: api, senderID: "BUSINESS"}

	id, err := client.SendSMS(context.Background(), "+966500000001", "activated")
	require.NoError(t, err)
	assert.Equal(t, "sns-1", id)
	assert.Equal(t, "+966500000001", awssdk.ToString(api.in.PhoneNumber))
	assert.Equal(t, "BUSINESS", awssdk.ToString(api.in.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))

	noSender := &SNSClient{api: api}
	_, err = noSender.SendSMS(context.Background(), "+966500000001", "activated")
	require.NoError(t, err)
	_, hasSender := api.in.MessageAttributes["AWS.SNS.SMS.SenderID"]
	assert.False(t, hasSender)
}
