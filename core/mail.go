package core

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"log"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"
)

//go:embed templates/email/*
var emailFS embed.FS

const emailTemplatesDir = "templates/email"

var (
	templates tmplCache
	tmplInit  sync.Once
)

type (
	tmplCacheEntry map[string]interface{}    // {ext: *Template}
	tmplCache      map[string]tmplCacheEntry // {name: {tmplCacheEntry}}

	Attachment struct {
		Content     *bytes.Buffer // base64 encoded
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName string
		Data    interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
		// Wait blocks until every message handed to SendMessages is sent or has failed
		Wait()
	}
)

var templateFuncs = map[string]interface{}{
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
}

func (m *EmailMessage) getContextData(appName string) ContextData {
	return ContextData{
		AppName: appName,
		Data:    m.TemplateData,
	}
}

func (m *EmailMessage) getTemplate(ext string) (interface{}, bool) {
	cache, ok := templates[m.TemplateName]
	if !ok {
		return nil, ok
	}
	tmplEntry, ok := cache[ext]
	return tmplEntry, ok
}

func (m *EmailMessage) renderText(appName string) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := m.getTemplate(".txt")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*texttmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.getContextData(appName)); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML(appName string) error {
	if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := m.getTemplate(".gohtml")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*htmltmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.getContextData(appName)); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

// Render fills TextContent & HTMLContent from the message template, if any.
func (m *EmailMessage) Render(appName string) error {
	if m.TemplateName != "" {
		ParseEmailTemplates(nil) // no-op after the first call
	}
	if err := m.renderText(appName); err != nil {
		return err
	}
	return m.renderHTML(appName)
}

// Attach base64 encodes the content of r as an attachment.
func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}
	encoder := base64.NewEncoder(base64.StdEncoding, at.Content)
	if _, err = encoder.Write(content); err != nil {
		return err
	}
	if err = encoder.Close(); err != nil {
		return err
	}

	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// ParseEmailTemplates parses the embedded email templates once.
// Each `name.txt` / `name.gohtml` is parsed along with `_base.txt` / `_base.gohtml`.
func ParseEmailTemplates(logger Logger) {
	tmplInit.Do(func() {
		logErr := func(err error) {
			err = fmt.Errorf("core.parseTemplates: %v", err)
			if logger != nil {
				logger.Error(err.Error(), err)
			} else {
				log.Print(err)
			}
		}

		templates = make(tmplCache)
		fps, err := fs.Glob(emailFS, path.Join(emailTemplatesDir, "*"))
		if err != nil {
			logErr(err)
			return
		}

		for _, fp := range fps {
			fname := path.Base(fp)
			ext := path.Ext(fname)
			if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
				continue
			}
			name := fname[:strings.LastIndex(fname, ".")]
			entry, ok := templates[name]
			if !ok {
				templates[name] = make(tmplCacheEntry)
				entry = templates[name]
			}

			base := path.Join(emailTemplatesDir, "_base"+ext)
			if ext == ".txt" {
				tmpl, err := texttmpl.New(path.Base(base)).Funcs(templateFuncs).ParseFS(emailFS, base, fp)
				if err != nil {
					logErr(err)
					continue
				}
				entry[ext] = tmpl.Option("missingkey=error")
			} else {
				tmpl, err := htmltmpl.New(path.Base(base)).Funcs(templateFuncs).ParseFS(emailFS, base, fp)
				if err != nil {
					logErr(err)
					continue
				}
				entry[ext] = tmpl.Option("missingkey=error")
			}
		}
	})
}
