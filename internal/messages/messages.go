// Package messages holds the canned reply texts for the intake conversation.
// The catalog ships with built-in defaults and can be overridden by a YAML
// file edited out-of-band.
package messages

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the full set of outbound texts. Multi-part fields are sent as
// ordered sequences with an inter-message gap.
type Catalog struct {
	Welcome      []string `yaml:"welcome"`
	EmailPrompt  []string `yaml:"emailPrompt"`
	InvalidEmail string   `yaml:"invalidEmail"`
	InvalidFile  string   `yaml:"invalidFile"`
	UploadResume string   `yaml:"uploadResume"`
	Success      []string `yaml:"success"`
	Error        string   `yaml:"error"`
	EmailUsed    string   `yaml:"emailUsed"`

	ConfirmationSubject string `yaml:"confirmationSubject"`
	ConfirmationBody    string `yaml:"confirmationBody"`
}

// Default returns the built-in catalog.
func Default() Catalog {
	return Catalog{
		Welcome: []string{
			"Hello and welcome to Grab Talent! 👋",
			"We're thrilled to have you here. Let's get you started on your journey to exciting career opportunities. Please provide your email address to create your account.",
		},
		EmailPrompt: []string{
			"Thank you! We've received your email: {email}. ✅",
			"Next, please upload your resume (PDF, DOCX, etc.) to complete your account setup. We're excited to learn more about you!",
		},
		InvalidEmail: "Oops! The email address you provided seems to be invalid. 🚫 Please double-check and try again. We want to ensure we can reach you!",
		InvalidFile:  "The file you uploaded is not a valid resume format or exceeds the size limit. Please upload a PDF or DOCX file not larger than 2MB.",
		UploadResume: "Great! Now, please upload your resume (PDF, DOCX, etc.) to complete your account setup. 📄 We're eager to see your qualifications and help you find the best opportunities!",
		Success: []string{
			"Your resume has been successfully received and forwarded to our team at Grab Talent! 🎉",
			"Thank you for using our service. We're excited to help you on your career journey!",
		},
		Error:     "Oops! Something went wrong while processing your file. 😔 Please try uploading your resume again. If the issue persists, contact our support team for assistance.",
		EmailUsed: "It looks like the email address you provided has already been used. 🔄 Please use a different email address to continue. We're here to help if you need any assistance!",

		ConfirmationSubject: "We received your resume",
		ConfirmationBody:    "Thank you for submitting your resume to Grab Talent. Our team has received it and will be in touch with matching opportunities.",
	}
}

// Load reads the catalog from path, layered over the defaults so a partial
// file only overrides the keys it names. A missing file yields the defaults.
func Load(path string) (Catalog, error) {
	c := Default()
	if strings.TrimSpace(path) == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return Catalog{}, fmt.Errorf("messages: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("messages: parse %s: %w", path, err)
	}
	return c, nil
}

// EmailPromptFor returns the email-prompt sequence with {email} substituted.
func (c Catalog) EmailPromptFor(email string) []string {
	out := make([]string, len(c.EmailPrompt))
	for i, msg := range c.EmailPrompt {
		out[i] = strings.ReplaceAll(msg, "{email}", email)
	}
	return out
}
