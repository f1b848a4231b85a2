// Package mailbox reads bill attachments out of a remote IMAP inbox.
package mailbox

import (
	"errors"
	"fmt"
	"net"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// Failure categories, distinguishable with errors.Is. Credentials and
// connect/login problems are fatal to a run; everything past login is
// recovered per message.
var (
	ErrCredentialsMissing = errors.New("mailbox credentials are not configured")
	ErrAuth               = errors.New("mailbox authentication failed")
	ErrTransport          = errors.New("mailbox transport failure")
)

// Config holds the connection settings for one mailbox
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
}

// Session is an authenticated mailbox session with INBOX selected.
// Callers must release it with Logout on every exit path.
type Session interface {
	// ListMessageIDs returns the sequence numbers of all inbox messages in
	// chronological order
	ListMessageIDs() ([]uint32, error)

	// Fetch retrieves the full raw message for a sequence number
	Fetch(id uint32) ([]byte, error)

	// MarkSeen flags a message as read. Advisory only: reprocessing is
	// prevented by content fingerprints, not read flags.
	MarkSeen(id uint32) error

	// Logout closes the session
	Logout() error
}

// Connector opens authenticated mailbox sessions
type Connector interface {
	Connect() (Session, error)
}

// IMAPConnector implements Connector over IMAP with implicit TLS
type IMAPConnector struct {
	cfg Config
}

// NewConnector creates a new IMAPConnector
func NewConnector(cfg Config) *IMAPConnector {
	return &IMAPConnector{cfg: cfg}
}

// Connect dials the server, logs in and selects INBOX. With empty
// credentials it fails before any network call.
func (c *IMAPConnector) Connect() (Session, error) {
	if c.cfg.User == "" || c.cfg.Password == "" {
		return nil, ErrCredentialsMissing
	}

	addr := net.JoinHostPort(c.cfg.Host, fmt.Sprintf("%d", c.cfg.Port))
	client, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", ErrTransport, addr, err)
	}

	if err := client.Login(c.cfg.User, c.cfg.Password).Wait(); err != nil {
		client.Close()
		var imapErr *imap.Error
		if errors.As(err, &imapErr) {
			return nil, fmt.Errorf("%w: %v", ErrAuth, err)
		}
		return nil, fmt.Errorf("%w: login: %v", ErrTransport, err)
	}

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		client.Logout().Wait()
		client.Close()
		return nil, fmt.Errorf("%w: selecting inbox: %v", ErrTransport, err)
	}

	return &imapSession{client: client}, nil
}

type imapSession struct {
	client *imapclient.Client
}

func (s *imapSession) ListMessageIDs() ([]uint32, error) {
	// Search ALL rather than UNSEEN: the whole inbox is re-scanned every
	// run and the fingerprint gate decides what is actually new.
	data, err := s.client.Search(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching inbox: %w", err)
	}
	return data.AllSeqNums(), nil
}

func (s *imapSession) Fetch(id uint32) ([]byte, error) {
	seqSet := imap.SeqSetNum(id)
	bodySection := &imap.FetchItemBodySection{}
	fetchOptions := &imap.FetchOptions{
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	msgs, err := s.client.Fetch(seqSet, fetchOptions).Collect()
	if err != nil {
		return nil, fmt.Errorf("fetching message %d: %w", id, err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("fetching message %d: no data returned", id)
	}

	raw := msgs[0].FindBodySection(bodySection)
	if raw == nil {
		return nil, fmt.Errorf("fetching message %d: missing body section", id)
	}
	return raw, nil
}

func (s *imapSession) MarkSeen(id uint32) error {
	seqSet := imap.SeqSetNum(id)
	storeFlags := &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}
	if err := s.client.Store(seqSet, storeFlags, nil).Close(); err != nil {
		return fmt.Errorf("marking message %d seen: %w", id, err)
	}
	return nil
}

func (s *imapSession) Logout() error {
	defer s.client.Close()
	if err := s.client.Logout().Wait(); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}
