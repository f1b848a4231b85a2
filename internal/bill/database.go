package bill

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const billBucketName = "bills"

// ErrNotFound is returned when no bill exists for a lookup key.
var ErrNotFound = errors.New("bill not found")

// DB defines the interface for the bill store. Bills are keyed by
// installation number, the natural key of the billing domain. The client
// document is persisted but never used for lookup.
type DB interface {
	// FindByInstallation retrieves a bill by installation number,
	// ErrNotFound when none exists
	FindByInstallation(installationNumber string) (*Bill, error)

	// Insert stores a new bill, assigning its identity and creation timestamp
	Insert(b *Bill) (*Bill, error)

	// Update overwrites the extracted fields of an existing bill and bumps
	// its last-modified timestamp
	Update(existing *Bill, fields *Bill) (*Bill, error)

	// ListBills returns all bills
	ListBills() ([]*Bill, error)

	// MarkPaid flags a bill as paid
	MarkPaid(installationNumber string) (*Bill, error)

	// Close closes the database connection
	Close() error
}

// IDGenerator generates unique IDs for bills
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now().UTC()
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db          *bbolt.DB
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	return NewBoltDBWithDeps(path, &uuidGenerator{}, &defaultTimeSource{})
}

// NewBoltDBWithDeps creates a new BoltDB with custom dependencies for testing
func NewBoltDBWithDeps(path string, idGen IDGenerator, timeSrc TimeSource) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(billBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db, idGenerator: idGen, timeSource: timeSrc}, nil
}

// FindByInstallation retrieves a bill by installation number
func (b *BoltDB) FindByInstallation(installationNumber string) (*Bill, error) {
	var found *Bill
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(billBucketName))
		data := bucket.Get([]byte(installationNumber))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &found)
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Insert stores a new bill, assigning it an ID and creation timestamp
func (b *BoltDB) Insert(bl *Bill) (*Bill, error) {
	now := b.timeSource.Now()
	bl.ID = b.idGenerator.Generate()
	bl.CreatedAt = now
	bl.UpdatedAt = now
	if err := b.put(bl); err != nil {
		return nil, fmt.Errorf("inserting bill: %w", err)
	}
	return bl, nil
}

// Update overwrites the extracted fields of an existing bill. Identity,
// creation timestamp and paid status survive; sentinel-valued optional
// fields do not clobber previously known values.
func (b *BoltDB) Update(existing *Bill, fields *Bill) (*Bill, error) {
	merged := *existing
	merged.ClientName = fields.ClientName
	merged.InstallationNumber = fields.InstallationNumber
	merged.TotalAmount = fields.TotalAmount
	merged.PDFPath = fields.PDFPath
	if fields.ClientDocument != SentinelUnknown && fields.ClientDocument != "" {
		merged.ClientDocument = fields.ClientDocument
	}
	if fields.ClientEmail != "" {
		merged.ClientEmail = fields.ClientEmail
	}
	if fields.ReferenceMonth != SentinelUnknown && fields.ReferenceMonth != "" {
		merged.ReferenceMonth = fields.ReferenceMonth
	}
	if fields.DueDate != SentinelUnknown && fields.DueDate != "" {
		merged.DueDate = fields.DueDate
	}
	merged.UpdatedAt = b.timeSource.Now()

	if err := b.put(&merged); err != nil {
		return nil, fmt.Errorf("updating bill: %w", err)
	}
	return &merged, nil
}

// ListBills returns all bills
func (b *BoltDB) ListBills() ([]*Bill, error) {
	bills := make([]*Bill, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(billBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var bl Bill
			if err := json.Unmarshal(v, &bl); err != nil {
				return fmt.Errorf("unmarshaling bill: %w", err)
			}
			bills = append(bills, &bl)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return bills, nil
}

// MarkPaid flags a bill as paid
func (b *BoltDB) MarkPaid(installationNumber string) (*Bill, error) {
	bl, err := b.FindByInstallation(installationNumber)
	if err != nil {
		return nil, err
	}
	bl.Paid = true
	bl.UpdatedAt = b.timeSource.Now()
	if err := b.put(bl); err != nil {
		return nil, fmt.Errorf("marking bill paid: %w", err)
	}
	return bl, nil
}

func (b *BoltDB) put(bl *Bill) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(billBucketName))
		data, err := json.Marshal(bl)
		if err != nil {
			return fmt.Errorf("marshaling bill: %w", err)
		}
		return bucket.Put([]byte(bl.InstallationNumber), data)
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
