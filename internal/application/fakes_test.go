package application

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/opsboard/operator-auth/internal/domain/autherr"
	"github.com/opsboard/operator-auth/internal/domain/entity"
	"github.com/opsboard/operator-auth/internal/domain/repository"
	"github.com/opsboard/operator-auth/pkg/mailer"
)

// fakeRepo is an in-memory OperatorRepository honoring the same
// uniqueness and window semantics as the Postgres implementation.
type fakeRepo struct {
	mu        sync.Mutex
	seq       int64
	tokenSeq  int64
	operators map[int64]*entity.Operator
	tokens    map[string]*entity.Token
	now       func() time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		operators: make(map[int64]*entity.Operator),
		tokens:    make(map[string]*entity.Token),
		now:       time.Now,
	}
}

func (f *fakeRepo) addOperator(email, name string, hash *string) *entity.Operator {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	op := &entity.Operator{
		ID:           f.seq,
		Email:        email,
		DisplayName:  name,
		PasswordHash: hash,
		CreatedAt:    f.now(),
		UpdatedAt:    f.now(),
	}
	f.operators[op.ID] = op
	return op
}

func (f *fakeRepo) addToken(operatorID int64, value string, createdAt time.Time) *entity.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenSeq++
	tok := &entity.Token{ID: f.tokenSeq, OperatorID: operatorID, Value: value, CreatedAt: createdAt}
	f.tokens[value] = tok
	return tok
}

func copyOperator(op *entity.Operator) *entity.Operator {
	c := *op
	if op.PasswordHash != nil {
		h := *op.PasswordHash
		c.PasswordHash = &h
	}
	return &c
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (*entity.Operator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, op := range f.operators {
		if strings.EqualFold(op.Email, email) {
			return copyOperator(op), nil
		}
	}
	return nil, autherr.NotFound("operator not found")
}

func (f *fakeRepo) GetByID(_ context.Context, id int64) (*entity.Operator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if op, ok := f.operators[id]; ok {
		return copyOperator(op), nil
	}
	return nil, autherr.NotFound("operator not found")
}

func (f *fakeRepo) NameTaken(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, op := range f.operators {
		if op.DisplayName == name && op.PasswordHash != nil {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) Rename(_ context.Context, id int64, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, op := range f.operators {
		if op.ID != id && op.DisplayName == name && op.PasswordHash != nil {
			return autherr.Conflict("operator name already taken")
		}
	}
	op, ok := f.operators[id]
	if !ok {
		return autherr.NotFound("operator not found")
	}
	op.DisplayName = name
	op.UpdatedAt = f.now()
	return nil
}

func (f *fakeRepo) CreateInvited(_ context.Context, email, tokenValue string) (*entity.Operator, error) {
	f.mu.Lock()
	for _, op := range f.operators {
		if strings.EqualFold(op.Email, email) {
			f.mu.Unlock()
			return nil, autherr.Conflict("an operator with this email already exists")
		}
	}
	f.mu.Unlock()
	op := f.addOperator(email, entity.PlaceholderName, nil)
	f.addToken(op.ID, tokenValue, f.now())
	return copyOperator(op), nil
}

func (f *fakeRepo) FindInvite(_ context.Context, tokenValue string) (*entity.TokenOwner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.tokens[tokenValue]
	if !ok {
		return nil, autherr.NotFound("no invitation for this token")
	}
	op := f.operators[tok.OperatorID]
	return &entity.TokenOwner{Token: *tok, Operator: *copyOperator(op)}, nil
}

func (f *fakeRepo) CompleteInvite(_ context.Context, tokenID, operatorID int64, name, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var value string
	for v, t := range f.tokens {
		if t.ID == tokenID {
			value = v
		}
	}
	if value == "" {
		return autherr.NotFound("no invitation for this token")
	}
	op, ok := f.operators[operatorID]
	if !ok {
		return autherr.NotFound("no invitation for this token")
	}
	op.DisplayName = name
	op.PasswordHash = &passwordHash
	op.UpdatedAt = f.now()
	delete(f.tokens, value)
	return nil
}

func (f *fakeRepo) CreateResetToken(_ context.Context, operatorID int64, tokenValue string, window time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for v, t := range f.tokens {
		if t.OperatorID != operatorID {
			continue
		}
		// Strictly older than the window, matching the SQL purge; a
		// token aged exactly window survives and conflicts.
		if f.now().Sub(t.CreatedAt) > window {
			delete(f.tokens, v)
			continue
		}
		return autherr.ErrTooManyRequests
	}
	f.tokenSeq++
	f.tokens[tokenValue] = &entity.Token{
		ID:         f.tokenSeq,
		OperatorID: operatorID,
		Value:      tokenValue,
		CreatedAt:  f.now(),
	}
	return nil
}

func (f *fakeRepo) FindResetToken(_ context.Context, tokenValue string, maxAge time.Duration) (*entity.TokenOwner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.tokens[tokenValue]
	if !ok || f.now().Sub(tok.CreatedAt) > maxAge {
		return nil, autherr.NotFound("invalid or timed out token")
	}
	op := f.operators[tok.OperatorID]
	return &entity.TokenOwner{Token: *tok, Operator: *copyOperator(op)}, nil
}

func (f *fakeRepo) ResetPassword(_ context.Context, tokenID, operatorID int64, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var value string
	for v, t := range f.tokens {
		if t.ID == tokenID {
			value = v
		}
	}
	if value == "" {
		return autherr.NotFound("invalid or timed out token")
	}
	op, ok := f.operators[operatorID]
	if !ok {
		return autherr.NotFound("invalid or timed out token")
	}
	op.PasswordHash = &passwordHash
	op.UpdatedAt = f.now()
	delete(f.tokens, value)
	return nil
}

var _ repository.OperatorRepository = (*fakeRepo)(nil)

type sentMail struct {
	Recipient string
	Subject   string
	Text      string
}

// fakeGateway records synchronous sends and can be told to fail.
type fakeGateway struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (g *fakeGateway) Send(_ context.Context, recipient, subject, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.sent = append(g.sent, sentMail{Recipient: recipient, Subject: subject, Text: text})
	return nil
}

var _ mailer.Gateway = (*fakeGateway)(nil)

// fakeQueue records published mail jobs.
type fakeQueue struct {
	mu   sync.Mutex
	jobs []any
	err  error
}

func (q *fakeQueue) PublishJSON(_ context.Context, body any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, body)
	return nil
}

var _ MailPublisher = (*fakeQueue)(nil)
