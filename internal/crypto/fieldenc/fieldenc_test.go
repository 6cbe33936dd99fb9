package fieldenc

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/treatment-register/internal/crypto/domain"
	"github.com/allisson/treatment-register/internal/crypto/service"
)

type record struct {
	Name    string
	Phone   string
	Address *string
	Public  string
}

func recordFields() []Field[record] {
	return []Field[record]{
		String("name", func(r *record) *string { return &r.Name }),
		String("phone", func(r *record) *string { return &r.Phone }),
		NullableString("address", func(r *record) **string { return &r.Address }),
	}
}

// MockCipher is a mock implementation of service.Cipher
type MockCipher struct {
	mock.Mock
}

func (m *MockCipher) Encrypt(plaintext string) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

func (m *MockCipher) Decrypt(value string) (string, error) {
	args := m.Called(value)
	return args.String(0), args.Error(1)
}

func (m *MockCipher) IsEncrypted(value string) bool {
	args := m.Called(value)
	return args.Bool(0)
}

func newCipher(t *testing.T) *service.FieldCipher {
	t.Helper()
	c, err := service.NewFieldCipher("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	return c
}

func strPtr(s string) *string {
	return &s
}

func TestInterceptor_RoundTrip(t *testing.T) {
	c := newCipher(t)
	enc := New("record", c, true, slog.Default(), recordFields()...)

	r := record{Name: "Jean Dupont", Phone: "0123456789", Address: strPtr("1 rue de Paris"), Public: "public"}
	require.NoError(t, enc.BeforeInsert(&r))

	assert.True(t, c.IsEncrypted(r.Name))
	assert.True(t, c.IsEncrypted(r.Phone))
	assert.True(t, c.IsEncrypted(*r.Address))
	assert.Equal(t, "public", r.Public)

	enc.AfterLoad(context.Background(), &r)
	assert.Equal(t, "Jean Dupont", r.Name)
	assert.Equal(t, "0123456789", r.Phone)
	assert.Equal(t, "1 rue de Paris", *r.Address)
}

func TestInterceptor_SkipsEmptyAndNull(t *testing.T) {
	c := &MockCipher{}
	enc := New("record", c, true, slog.Default(), recordFields()...)

	r := record{}
	require.NoError(t, enc.BeforeUpdate(&r))
	enc.AfterLoad(context.Background(), &r)

	assert.Equal(t, "", r.Name)
	assert.Nil(t, r.Address)
	c.AssertNotCalled(t, "Encrypt", mock.Anything)
	c.AssertNotCalled(t, "Decrypt", mock.Anything)
}

func TestInterceptor_CopyDoesNotAliasNullableField(t *testing.T) {
	enc := New("record", newCipher(t), true, slog.Default(), recordFields()...)

	original := record{Name: "n", Address: strPtr("plain address")}
	stored := original
	require.NoError(t, enc.BeforeInsert(&stored))

	assert.Equal(t, "n", original.Name)
	assert.Equal(t, "plain address", *original.Address)
	assert.NotEqual(t, "plain address", *stored.Address)
}

func TestInterceptor_EncryptFailurePropagates(t *testing.T) {
	c := &MockCipher{}
	c.On("Encrypt", "Jean").Return("<ENC>ok</ENC>", nil).Once()
	c.On("Encrypt", "0123").Return("", cryptoDomain.ErrEncryptionFailed).Once()
	enc := New("record", c, true, slog.Default(), recordFields()...)

	r := record{Name: "Jean", Phone: "0123", Address: strPtr("addr")}
	err := enc.BeforeInsert(&r)

	require.Error(t, err)
	assert.ErrorIs(t, err, cryptoDomain.ErrEncryptionFailed)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "record", fieldErr.EntityType)
	assert.Equal(t, "phone", fieldErr.Field)
	c.AssertExpectations(t)
}

func TestInterceptor_DecryptFailureIsLoggedAndLeavesCiphertext(t *testing.T) {
	c := newCipher(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	enc := New("record", c, true, logger, recordFields()...)

	r := record{Name: "Jean Dupont", Phone: "0123456789"}
	require.NoError(t, enc.BeforeInsert(&r))
	r.Phone = "<ENC>corrupted!!</ENC>"

	enc.AfterLoad(context.Background(), &r)

	assert.Equal(t, "Jean Dupont", r.Name)
	assert.Equal(t, "<ENC>corrupted!!</ENC>", r.Phone)
	assert.Contains(t, buf.String(), "failed to decrypt field")
	assert.Contains(t, buf.String(), `"field":"phone"`)
	assert.NotContains(t, buf.String(), "corrupted!!")
}

func TestInterceptor_Disabled(t *testing.T) {
	c := &MockCipher{}
	enc := New("record", c, false, slog.Default(), recordFields()...)

	r := record{Name: "Jean", Phone: "<ENC>x</ENC>"}
	require.NoError(t, enc.BeforeInsert(&r))
	enc.AfterLoad(context.Background(), &r)

	assert.False(t, enc.Enabled())
	assert.Equal(t, "Jean", r.Name)
	assert.Equal(t, "<ENC>x</ENC>", r.Phone)
	c.AssertNotCalled(t, "Encrypt", mock.Anything)
}

func TestInterceptor_NilEntity(t *testing.T) {
	enc := New("record", &MockCipher{}, true, slog.Default(), recordFields()...)

	assert.NoError(t, enc.BeforeInsert(nil))
	assert.NotPanics(t, func() { enc.AfterLoad(context.Background(), nil) })
}

func TestInterceptor_AfterLoadAll(t *testing.T) {
	c := newCipher(t)
	enc := New("record", c, true, slog.Default(), recordFields()...)

	first := &record{Name: "first"}
	second := &record{Name: "second"}
	require.NoError(t, enc.BeforeInsert(first))
	require.NoError(t, enc.BeforeInsert(second))

	enc.AfterLoadAll(context.Background(), []*record{first, second})

	assert.Equal(t, "first", first.Name)
	assert.Equal(t, "second", second.Name)
}

func TestDescribe(t *testing.T) {
	records := New("record", &MockCipher{}, true, slog.Default(), recordFields()...)
	others := New("other", &MockCipher{}, true, slog.Default(),
		String("email", func(r *record) *string { return &r.Name }),
	)

	assert.Equal(t, map[string][]string{
		"record": {"name", "phone", "address"},
		"other":  {"email"},
	}, Describe(records, others))
}
