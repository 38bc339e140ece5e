// Package i18n provides the translated labels used by redaction and by
// access errors, backed by golang.org/x/text message catalogs.
package i18n

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"golang.org/x/text/unicode/norm"
)

// Message keys.
const (
	KeyTransparent = "transparent"
	KeyOpaque      = "opaque"
	KeyAccessError = "access_error"
)

// LabelProvider yields human-readable strings in the language of the
// context.
type LabelProvider interface {
	// Label returns the text for key; unknown keys are returned as is.
	Label(ctx context.Context, key string) string
	// AccessError returns the access-error message naming the entity.
	AccessError(ctx context.Context, entity string) string
}

var builtin = map[language.Tag]map[string]string{
	language.English: {
		KeyTransparent: "Free",
		KeyOpaque:      "Busy",
		KeyAccessError: "You try to bypass an access rule!\n(Document type: %s)",
	},
	language.French: {
		KeyTransparent: "Libre",
		KeyOpaque:      "Occupé",
		KeyAccessError: "Vous essayez de contourner une règle d'accès !\n(Type de document : %s)",
	},
	language.German: {
		KeyTransparent: "Frei",
		KeyOpaque:      "Beschäftigt",
		KeyAccessError: "Sie versuchen eine Zugriffsregel zu umgehen!\n(Dokumenttyp: %s)",
	},
	language.Spanish: {
		KeyTransparent: "Libre",
		KeyOpaque:      "Ocupado",
		KeyAccessError: "¡Intenta saltarse una regla de acceso!\n(Tipo de documento: %s)",
	},
}

// Catalog is a LabelProvider over a message catalog. It is immutable
// once built and safe for concurrent use.
type Catalog struct {
	cat      *catalog.Builder
	tags     []language.Tag
	matcher  language.Matcher
	fallback language.Tag
}

var _ LabelProvider = (*Catalog)(nil)

// Option configures a Catalog.
type Option func(*options)

type options struct {
	fallback language.Tag
	extra    map[string]map[string]string
}

// WithFallback sets the language used when the context carries none, or
// one the catalog does not know. Defaults to English.
func WithFallback(tag language.Tag) Option {
	return func(o *options) { o.fallback = tag }
}

// WithMessages adds or overrides messages, keyed by BCP 47 language tag
// and then by message key.
func WithMessages(messages map[string]map[string]string) Option {
	return func(o *options) { o.extra = messages }
}

// New builds a catalog from the built-in messages and the options.
func New(opts ...Option) (*Catalog, error) {
	o := options{fallback: language.English}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Catalog{
		cat:      catalog.NewBuilder(catalog.Fallback(o.fallback)),
		fallback: o.fallback,
	}
	seen := make(map[language.Tag]bool)
	add := func(tag language.Tag, msgs map[string]string) error {
		if !seen[tag] {
			seen[tag] = true
			c.tags = append(c.tags, tag)
		}
		for key, msg := range msgs {
			msg = norm.NFC.String(msg)
			if key != KeyAccessError {
				// Labels are printed verbatim.
				msg = strings.ReplaceAll(msg, "%", "%%")
			}
			if err := c.cat.SetString(tag, key, msg); err != nil {
				return fmt.Errorf("i18n: set %s/%s: %w", tag, key, err)
			}
		}
		return nil
	}
	// The fallback goes first: the matcher defaults to its first tag.
	if err := add(o.fallback, builtin[o.fallback]); err != nil {
		return nil, err
	}
	for _, tag := range []language.Tag{language.English, language.French, language.German, language.Spanish} {
		if err := add(tag, builtin[tag]); err != nil {
			return nil, err
		}
	}
	for lang, msgs := range o.extra {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("i18n: language %q: %w", lang, err)
		}
		if err := add(tag, msgs); err != nil {
			return nil, err
		}
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Catalog {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Label returns the text for key in the language of ctx.
func (c *Catalog) Label(ctx context.Context, key string) string {
	return c.printer(ctx).Sprintf(message.Key(key, strings.ReplaceAll(key, "%", "%%")))
}

// AccessError returns the access-error message for entity.
func (c *Catalog) AccessError(ctx context.Context, entity string) string {
	return c.printer(ctx).Sprintf(KeyAccessError, entity)
}

// Languages returns the languages the catalog has messages for.
func (c *Catalog) Languages() []language.Tag {
	return append([]language.Tag(nil), c.tags...)
}

func (c *Catalog) printer(ctx context.Context) *message.Printer {
	return message.NewPrinter(c.match(LanguageFromContext(ctx)), message.Catalog(c.cat))
}

func (c *Catalog) match(tag language.Tag) language.Tag {
	if tag == language.Und {
		return c.fallback
	}
	_, i, conf := c.matcher.Match(tag)
	if conf == language.No {
		return c.fallback
	}
	return c.tags[i]
}

type languageCtxKey struct{}

// WithLanguage returns a context carrying the language of the acting user.
func WithLanguage(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, languageCtxKey{}, tag)
}

// LanguageFromContext returns the language in ctx, or language.Und.
func LanguageFromContext(ctx context.Context) language.Tag {
	tag, ok := ctx.Value(languageCtxKey{}).(language.Tag)
	if !ok {
		return language.Und
	}
	return tag
}
