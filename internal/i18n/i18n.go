// Package i18n localizes user-facing messages. Catalog keys are the English
// strings; German and French translations ship with the binary.
package i18n

import (
	"context"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	MsgNameTooLong     = "The given name is too long"
	MsgURLTooLong      = "The given web address is too long"
	MsgSloganTooLong   = "The given slogan is too long"
	MsgColorInvalid    = "The given color is invalid"
	MsgSaved           = "Saved"
	MsgNoFileUploaded  = "No file uploaded"
	MsgUnsupportedType = "Unsupported image type"
	MsgInternalError   = "An internal error occurred"
	MsgUnknownSetting  = "The given setting is not supported"
	MsgFileTooLarge    = "The uploaded file is too large"
)

var translations = map[language.Tag]map[string]string{
	language.German: {
		MsgNameTooLong:     "Der angegebene Name ist zu lang",
		MsgURLTooLong:      "Die angegebene Web-Adresse ist zu lang",
		MsgSloganTooLong:   "Der angegebene Slogan ist zu lang",
		MsgColorInvalid:    "Die angegebene Farbe ist ungültig",
		MsgSaved:           "Gespeichert",
		MsgNoFileUploaded:  "Keine Datei hochgeladen",
		MsgUnsupportedType: "Nicht unterstütztes Bildformat",
		MsgInternalError:   "Ein interner Fehler ist aufgetreten",
		MsgUnknownSetting:  "Die angegebene Einstellung wird nicht unterstützt",
		MsgFileTooLarge:    "Die hochgeladene Datei ist zu groß",
	},
	language.French: {
		MsgNameTooLong:     "Le nom donné est trop long",
		MsgURLTooLong:      "L'adresse web donnée est trop longue",
		MsgSloganTooLong:   "Le slogan donné est trop long",
		MsgColorInvalid:    "La couleur donnée est invalide",
		MsgSaved:           "Enregistré",
		MsgNoFileUploaded:  "Aucun fichier envoyé",
		MsgUnsupportedType: "Type d'image non pris en charge",
		MsgInternalError:   "Une erreur interne est survenue",
		MsgUnknownSetting:  "Le paramètre donné n'est pas pris en charge",
		MsgFileTooLarge:    "Le fichier envoyé est trop volumineux",
	},
}

// Translator negotiates a language and renders catalog messages in it.
type Translator struct {
	supported []language.Tag
	matcher   language.Matcher
	catalog   catalog.Catalog
}

// New builds a translator. defaultLang is used when negotiation fails; an
// unknown or unsupported value falls back to English.
func New(defaultLang string) *Translator {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	keys := []string{
		MsgNameTooLong, MsgURLTooLong, MsgSloganTooLong, MsgColorInvalid,
		MsgSaved, MsgNoFileUploaded, MsgUnsupportedType, MsgInternalError,
		MsgUnknownSetting, MsgFileTooLarge,
	}
	for _, k := range keys {
		b.SetString(language.English, k, k)
	}
	for tag, msgs := range translations {
		for k, v := range msgs {
			b.SetString(tag, k, v)
		}
	}

	all := []language.Tag{language.English, language.German, language.French}
	def := language.English
	if tag, err := language.Parse(defaultLang); err == nil {
		_, idx, conf := language.NewMatcher(all).Match(tag)
		if conf != language.No {
			def = all[idx]
		}
	}

	supported := []language.Tag{def}
	for _, tag := range all {
		if tag != def {
			supported = append(supported, tag)
		}
	}

	return &Translator{
		supported: supported,
		matcher:   language.NewMatcher(supported),
		catalog:   b,
	}
}

// Default returns the fallback language.
func (t *Translator) Default() language.Tag { return t.supported[0] }

// Negotiate picks the best supported language for an Accept-Language header.
func (t *Translator) Negotiate(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.Default()
	}
	_, idx, _ := t.matcher.Match(tags...)
	return t.supported[idx]
}

// T renders the message key in the given language.
func (t *Translator) T(tag language.Tag, key string) string {
	return message.NewPrinter(tag, message.Catalog(t.catalog)).Sprintf(key)
}

type ctxKey struct{}

// WithLanguage stores the negotiated language in the context.
func WithLanguage(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, ctxKey{}, tag)
}

// LanguageFromContext returns the negotiated language, or English.
func LanguageFromContext(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(ctxKey{}).(language.Tag); ok {
		return tag
	}
	return language.English
}
