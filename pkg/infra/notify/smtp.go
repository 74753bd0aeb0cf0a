package notify

import (
	"context"
	"net"
	"strconv"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/wneessen/go-mail"

	"github.com/m-mizutani/carrot/pkg/domain/model"
)

// SMTPConfig holds mail server settings
type SMTPConfig struct {
	Addr     string // host:port
	From     string
	Username string
	Password string `masq:"secret"`
}

// Sender delivers composed messages. *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTP sends notifications by e-mail
type SMTP struct {
	from   string
	sender Sender
}

// SMTPOption configures the SMTP notifier
type SMTPOption func(*SMTP)

// WithSender replaces the mail client
func WithSender(sender Sender) SMTPOption {
	return func(x *SMTP) {
		x.sender = sender
	}
}

// NewSMTP creates a mail notifier. STARTTLS is used when the server offers it; credentials are
// only sent when a username is configured.
func NewSMTP(cfg SMTPConfig, opts ...SMTPOption) (*SMTP, error) {
	x := &SMTP{from: cfg.From}
	for _, opt := range opts {
		opt(x)
	}
	if x.sender != nil {
		return x, nil
	}

	host, portStr, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return nil, goerr.Wrap(err, "smtp address must be host:port", goerr.V("addr", cfg.Addr))
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid smtp port", goerr.V("addr", cfg.Addr))
	}

	clientOpts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(host, clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create mail client", goerr.V("addr", cfg.Addr))
	}
	x.sender = client
	return x, nil
}

func (x *SMTP) Notify(ctx context.Context, n *model.Notification) error {
	if n.Recipient == "" {
		return goerr.New("notification has no recipient", goerr.V("template", n.Template))
	}

	msg, err := x.compose(n)
	if err != nil {
		return err
	}

	if err := x.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return goerr.Wrap(err, "failed to send notification mail",
			goerr.V("template", n.Template), goerr.V("recipient", n.Recipient))
	}

	ctxlog.From(ctx).Info("Notification mail sent", "template", n.Template, "recipient", n.Recipient)
	return nil
}

func (x *SMTP) compose(n *model.Notification) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(x.from); err != nil {
		return nil, goerr.Wrap(err, "invalid sender address", goerr.V("from", x.from))
	}
	if err := msg.To(n.Recipient); err != nil {
		return nil, goerr.Wrap(err, "invalid recipient address", goerr.V("recipient", n.Recipient))
	}
	msg.Subject(n.Subject())
	msg.SetBodyString(mail.TypeTextPlain, n.Body())
	return msg, nil
}
