package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
)

const charSet = "UTF-8"

// NewSESClient создает клиента SES для региона.
func NewSESClient(region string) (*ses.SES, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("не удалось создать сессию AWS: %w", err)
	}
	return ses.New(sess), nil
}

// EmailNotifier отправляет клиенту письмо о принятой брони.
type EmailNotifier struct {
	svc    sesiface.SESAPI
	sender string
}

func NewEmailNotifier(svc sesiface.SESAPI, sender string) *EmailNotifier {
	return &EmailNotifier{svc: svc, sender: sender}
}

func (n *EmailNotifier) Name() string { return "ses" }

func (n *EmailNotifier) Notify(ctx context.Context, e Event) error {
	subject, body := CustomerEmail(e)
	input := &ses.SendEmailInput{
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(e.Reservation.CustomerEmail)},
		},
		Message: &ses.Message{
			Body: &ses.Body{
				Text: &ses.Content{Charset: aws.String(charSet), Data: aws.String(body)},
			},
			Subject: &ses.Content{Charset: aws.String(charSet), Data: aws.String(subject)},
		},
		Source: aws.String(n.sender),
	}
	if _, err := n.svc.SendEmailWithContext(ctx, input); err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case ses.ErrCodeMessageRejected, ses.ErrCodeMailFromDomainNotVerifiedException:
				log.Println(aerr.Code(), aerr.Message())
			}
		}
		return fmt.Errorf("не удалось отправить письмо: %w", err)
	}
	return nil
}

// CustomerEmail тема и текст письма клиенту.
func CustomerEmail(e Event) (subject, body string) {
	r, exp := e.Reservation, e.Experience
	subject = "Your reservation: " + exp.Title

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", r.CustomerName)
	fmt.Fprintf(&b, "Thank you for reserving %s on %s in %s.\n", exp.Title, exp.StartDateString(), exp.Location)
	fmt.Fprintf(&b, "Reservation #%d, %d participant(s), total %s.\n\n", r.ID, r.Participants, r.TotalPrice)
	if e.GroupConfirmed {
		b.WriteString("Good news: the minimum group size has been reached and the experience is confirmed.\n")
	} else {
		b.WriteString("We'll notify you when the minimum group size is reached.\n")
	}
	b.WriteString("\nAlto Mayo Experiences\n")
	return subject, b.String()
}
