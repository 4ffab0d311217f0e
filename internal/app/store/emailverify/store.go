// internal/app/store/emailverify/store.go
package emailverify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultExpiry is how long a verification code stays valid.
	DefaultExpiry = 10 * time.Minute
	// MaxVerifyAttempts caps code guesses per verification record.
	MaxVerifyAttempts = 5
	// MaxResends caps resend requests within ResendWindow.
	MaxResends = 3
	// ResendWindow is the rate-limit window for resends.
	ResendWindow = 10 * time.Minute

	tokenBytes = 32
	bcryptCost = 10
)

var (
	// ErrNotFound is returned when no live verification record exists.
	ErrNotFound = errors.New("verification not found or expired")
	// ErrInvalidCode is returned when the submitted code does not match.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrTooManyAttempts is returned after MaxVerifyAttempts wrong guesses.
	ErrTooManyAttempts = errors.New("too many verification attempts")
	// ErrTooManyResends is returned when the resend rate limit is hit.
	ErrTooManyResends = errors.New("too many resend requests")
)

// Verification is a pending email verification: a hashed one-time code
// plus a magic-link token, both single use.
type Verification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id"`
	Email       string             `bson:"email"`
	CodeHash    string             `bson:"code_hash"`
	Token       string             `bson:"token"`
	ExpiresAt   time.Time          `bson:"expires_at"`
	CreatedAt   time.Time          `bson:"created_at"`
	Attempts    int                `bson:"attempts"`
	ResendCount int                `bson:"resend_count"`
	WindowStart time.Time          `bson:"window_start"`
}

// Store manages email verification records.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a Store. A zero or negative expiry falls back to
// DefaultExpiry.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{
		c:      db.Collection("email_verifications"),
		expiry: expiry,
	}
}

// Expiry returns the configured code lifetime.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// EnsureIndexes creates the token and user lookups plus the TTL index
// that reaps expired records.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_emailverify_expires_ttl").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetName("idx_emailverify_token"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_emailverify_user"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// CreateResult carries the plain-text code and magic-link token to be
// emailed. Neither is ever stored in the clear.
type CreateResult struct {
	Code        string
	Token       string
	ResendCount int
}

// Create replaces any pending verification for the user with a fresh
// one. When isResend is true the call counts against the resend rate
// limit.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, email string, isResend bool) (*CreateResult, error) {
	now := time.Now()

	var existing Verification
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&existing)
	existingFound := err == nil

	resendCount := 0
	windowStart := now
	if existingFound && now.Before(existing.WindowStart.Add(ResendWindow)) {
		windowStart = existing.WindowStart
		resendCount = existing.ResendCount
		if isResend {
			if resendCount >= MaxResends {
				return nil, ErrTooManyResends
			}
			resendCount++
		}
	}

	code := generateCode()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash code: %w", err)
	}
	token := generateToken()

	// Single pending verification per user.
	_, _ = s.c.DeleteMany(ctx, bson.M{"user_id": userID})

	v := Verification{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Email:       email,
		CodeHash:    string(hash),
		Token:       token,
		ExpiresAt:   now.Add(s.expiry),
		CreatedAt:   now,
		ResendCount: resendCount,
		WindowStart: windowStart,
	}
	if _, err := s.c.InsertOne(ctx, v); err != nil {
		return nil, fmt.Errorf("insert verification: %w", err)
	}

	return &CreateResult{Code: code, Token: token, ResendCount: resendCount}, nil
}

// VerifyCode checks a submitted code for the user. On success the
// record is consumed. Every call, right or wrong, counts as an attempt.
func (s *Store) VerifyCode(ctx context.Context, userID primitive.ObjectID, code string) (*Verification, error) {
	var v Verification
	err := s.c.FindOne(ctx, bson.M{
		"user_id":    userID,
		"expires_at": bson.M{"$gt": time.Now()},
	}).Decode(&v)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if v.Attempts >= MaxVerifyAttempts {
		return nil, ErrTooManyAttempts
	}
	_, _ = s.c.UpdateOne(ctx, bson.M{"_id": v.ID}, bson.M{"$inc": bson.M{"attempts": 1}})

	if err := bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(code)); err != nil {
		return nil, ErrInvalidCode
	}

	_, _ = s.c.DeleteOne(ctx, bson.M{"_id": v.ID})
	return &v, nil
}

// VerifyToken consumes a magic-link token if it is still live.
func (s *Store) VerifyToken(ctx context.Context, token string) (*Verification, error) {
	var v Verification
	err := s.c.FindOne(ctx, bson.M{
		"token":      token,
		"expires_at": bson.M{"$gt": time.Now()},
	}).Decode(&v)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	_, _ = s.c.DeleteOne(ctx, bson.M{"_id": v.ID})
	return &v, nil
}

// DeleteByUser drops all pending verifications for a user.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

// generateCode returns a random 6-digit numeric code.
// Panics if the system's cryptographic random number generator fails.
func generateCode() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	n := int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
	if n < 0 {
		n = -n
	}
	return fmt.Sprintf("%06d", (n%900000)+100000)
}

// generateToken returns a random hex token for magic links.
// Panics if the system's cryptographic random number generator fails.
func generateToken() string {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
