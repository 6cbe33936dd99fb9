// Package fieldenc applies the field cipher to the sensitive fields of an entity type
// around persistence boundaries.
//
// Each entity type registers a static table of typed field accessors. Repository
// decorators call BeforeInsert/BeforeUpdate on a copy of the entity before it is
// written and AfterLoad on every entity read back, so the rest of the application
// only ever sees plaintext.
package fieldenc

import (
	"context"
	"log/slog"

	"github.com/allisson/treatment-register/internal/crypto/service"
)

// Field binds a sensitive field name to accessors on T.
//
// Get returns nil when the field is null. Set replaces the field value and must not
// write through a pointer shared with the value returned by Get.
type Field[T any] struct {
	Name string
	Get  func(entity *T) *string
	Set  func(entity *T, value string)
}

// String declares a non-nullable string field.
func String[T any](name string, ref func(entity *T) *string) Field[T] {
	return Field[T]{
		Name: name,
		Get:  ref,
		Set: func(entity *T, value string) {
			*ref(entity) = value
		},
	}
}

// NullableString declares a *string field. Set allocates a new pointer so a shallow
// copy of the entity never aliases the original value.
func NullableString[T any](name string, ref func(entity *T) **string) Field[T] {
	return Field[T]{
		Name: name,
		Get: func(entity *T) *string {
			return *ref(entity)
		},
		Set: func(entity *T, value string) {
			v := value
			*ref(entity) = &v
		},
	}
}

// Interceptor encrypts and decrypts the configured fields of entity type T.
type Interceptor[T any] struct {
	entityType string
	cipher     service.Cipher
	fields     []Field[T]
	enabled    bool
	logger     *slog.Logger
}

// New creates an Interceptor for entityType. When enabled is false every hook is a no-op.
func New[T any](
	entityType string,
	cipher service.Cipher,
	enabled bool,
	logger *slog.Logger,
	fields ...Field[T],
) *Interceptor[T] {
	return &Interceptor[T]{
		entityType: entityType,
		cipher:     cipher,
		fields:     fields,
		enabled:    enabled,
		logger:     logger,
	}
}

// EntityType returns the name of the entity type this interceptor handles.
func (i *Interceptor[T]) EntityType() string {
	return i.entityType
}

// FieldNames returns the configured sensitive field names.
func (i *Interceptor[T]) FieldNames() []string {
	names := make([]string, 0, len(i.fields))
	for _, f := range i.fields {
		names = append(names, f.Name)
	}
	return names
}

// Enabled reports whether the interceptor transforms field values.
func (i *Interceptor[T]) Enabled() bool {
	return i.enabled
}

// BeforeInsert encrypts every non-empty sensitive field. The first failure aborts
// the write and is returned.
func (i *Interceptor[T]) BeforeInsert(entity *T) error {
	return i.encrypt(entity)
}

// BeforeUpdate encrypts every non-empty sensitive field. The first failure aborts
// the write and is returned.
func (i *Interceptor[T]) BeforeUpdate(entity *T) error {
	return i.encrypt(entity)
}

// AfterLoad decrypts every non-empty sensitive field. A field that fails to decrypt is
// logged and left as stored, so callers must not assume every field was decrypted.
func (i *Interceptor[T]) AfterLoad(ctx context.Context, entity *T) {
	if !i.enabled || entity == nil {
		return
	}

	for _, f := range i.fields {
		value := f.Get(entity)
		if value == nil || *value == "" {
			continue
		}

		plaintext, err := i.cipher.Decrypt(*value)
		if err != nil {
			i.logger.ErrorContext(ctx, "failed to decrypt field",
				slog.String("entity_type", i.entityType),
				slog.String("field", f.Name),
				slog.Any("error", err),
			)
			continue
		}
		f.Set(entity, plaintext)
	}
}

// AfterLoadAll runs AfterLoad on every entity in the slice.
func (i *Interceptor[T]) AfterLoadAll(ctx context.Context, entities []*T) {
	for _, entity := range entities {
		i.AfterLoad(ctx, entity)
	}
}

func (i *Interceptor[T]) encrypt(entity *T) error {
	if !i.enabled || entity == nil {
		return nil
	}

	for _, f := range i.fields {
		value := f.Get(entity)
		if value == nil || *value == "" {
			continue
		}

		ciphertext, err := i.cipher.Encrypt(*value)
		if err != nil {
			return &FieldError{EntityType: i.entityType, Field: f.Name, Err: err}
		}
		f.Set(entity, ciphertext)
	}
	return nil
}

// FieldError reports the field that could not be encrypted.
type FieldError struct {
	EntityType string
	Field      string
	Err        error
}

func (e *FieldError) Error() string {
	return "encrypt " + e.EntityType + "." + e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Describer exposes the sensitive field configuration of an interceptor.
type Describer interface {
	EntityType() string
	FieldNames() []string
}

// Describe returns the sensitive field names per entity type.
func Describe(interceptors ...Describer) map[string][]string {
	out := make(map[string][]string, len(interceptors))
	for _, i := range interceptors {
		out[i.EntityType()] = i.FieldNames()
	}
	return out
}
