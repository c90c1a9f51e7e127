// Package locale translates user-facing messages with go-i18n. Message IDs
// double as the keys carried by validation errors.
package locale

import (
	"io/fs"
	"strings"
	"sync"

	"github.com/inkwell-blog/inkwell/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

const (
	langCookie   = "lang"
	contextLang  = "lang"
	contextLocal = "localizer"
)

var (
	bundleMu   sync.RWMutex
	i18nBundle *i18n.Bundle
)

// InitLocalizer loads every file under translation/ in i18nFS.
func InitLocalizer(i18nFS fs.FS) error {
	bundle := i18n.NewBundle(language.MustParse("en-US"))
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if err := parseTranslationFiles(i18nFS, bundle); err != nil {
		return err
	}

	bundleMu.Lock()
	i18nBundle = bundle
	bundleMu.Unlock()
	return nil
}

// Languages lists the tags that have a translation file.
func Languages() []string {
	bundle := getBundle()
	if bundle == nil {
		return nil
	}
	tags := bundle.LanguageTags()
	langs := make([]string, 0, len(tags))
	for _, tag := range tags {
		langs = append(langs, tag.String())
	}
	return langs
}

func getBundle() *i18n.Bundle {
	bundleMu.RLock()
	defer bundleMu.RUnlock()
	return i18nBundle
}

func createTemplateData(params []string, seperator ...string) map[string]any {
	sep := "=="
	if len(seperator) > 0 {
		sep = seperator[0]
	}

	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, sep, 2)
		if len(parts) != 2 {
			continue
		}
		templateData[parts[0]] = parts[1]
	}
	return templateData
}

func localize(localizer *i18n.Localizer, key string, params ...string) string {
	if localizer == nil {
		return key
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Warningf("Failed to localize message %q: %v", key, err)
		return key
	}
	return msg
}

func newLocalizer(langs ...string) *i18n.Localizer {
	bundle := getBundle()
	if bundle == nil {
		return nil
	}
	return i18n.NewLocalizer(bundle, langs...)
}

// I18n translates key for lang. Params are "name==value" template arguments.
// Unknown keys come back unchanged.
func I18n(lang string, key string, params ...string) string {
	return localize(newLocalizer(lang), key, params...)
}

// Web translates key for the language picked by LocalizerMiddleware.
func Web(c *gin.Context, key string, params ...string) string {
	if v, ok := c.Get(contextLocal); ok {
		if localizer, ok := v.(*i18n.Localizer); ok {
			return localize(localizer, key, params...)
		}
	}
	return localize(newLocalizer(c.GetHeader("Accept-Language")), key, params...)
}

// Lang returns the language selected for the request.
func Lang(c *gin.Context) string {
	return c.GetString(contextLang)
}

// LocalizerMiddleware picks the language from the lang cookie, falling back
// to Accept-Language.
func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string
		if cookie, err := c.Request.Cookie(langCookie); err == nil {
			lang = cookie.Value
		} else {
			lang = c.GetHeader("Accept-Language")
		}

		c.Set(contextLang, lang)
		c.Set(contextLocal, newLocalizer(lang))
		c.Next()
	}
}

func parseTranslationFiles(i18nFS fs.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(i18nFS, "translation",
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			data, err := fs.ReadFile(i18nFS, path)
			if err != nil {
				return err
			}

			_, err = bundle.ParseMessageFileBytes(data, path)
			return err
		})
}
