package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vindoc-backend/internal/models"
	"vindoc-backend/internal/repository"
)

var builtinVoiceTemplates = map[string]models.VoiceCallTemplate{
	"en": {
		Language: "en",
		Greeting: "Hello {{owner_name}}, this is a reminder from VinDoc.",
		Message:  "The {{document_type}} for your vehicle {{vehicle_number}} {{days_text}}.",
		Closing:  "Please renew it on time to avoid penalties. Thank you.",
		IsActive: true,
	},
	"hi": {
		Language: "hi",
		Greeting: "नमस्ते {{owner_name}}, यह VinDoc की ओर से एक रिमाइंडर है।",
		Message:  "आपके वाहन {{vehicle_number}} का {{document_type}} {{days_text}}।",
		Closing:  "जुर्माने से बचने के लिए कृपया समय पर नवीनीकरण करें। धन्यवाद।",
		IsActive: true,
	},
}

// resolveTemplate tries stored templates before built-in ones, preferred
// language before the default language.
func (s *VoiceCallService) resolveTemplate(ctx context.Context, preferred string) models.VoiceCallTemplate {
	preferred = strings.ToLower(strings.TrimSpace(preferred))
	fallback := strings.ToLower(s.cfg.DefaultLanguage)
	if fallback == "" {
		fallback = "en"
	}

	langs := []string{fallback}
	if preferred != "" && preferred != fallback {
		langs = []string{preferred, fallback}
	}

	for _, lang := range langs {
		tmpl, err := s.calls.FindActiveTemplate(ctx, lang)
		if err == nil {
			return *tmpl
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.WithError(err).WithField("language", lang).Warn("voice template lookup failed")
		}
	}
	for _, lang := range langs {
		if tmpl, ok := builtinVoiceTemplates[lang]; ok {
			return tmpl
		}
	}
	return builtinVoiceTemplates["en"]
}

func (s *VoiceCallService) renderScript(ctx context.Context, user *models.User, vehicle *models.Vehicle, req VoiceCallRequest) (string, string) {
	tmpl := s.resolveTemplate(ctx, user.PreferredLanguage)

	replacer := strings.NewReplacer(
		"{{owner_name}}", user.DisplayName(),
		"{{vehicle_number}}", spokenRegistration(vehicle.RegistrationNumber),
		"{{document_type}}", models.DocumentLabels[req.DocumentType],
		"{{days_text}}", daysText(tmpl.Language, req.DaysRemaining),
	)

	parts := make([]string, 0, 3)
	for _, p := range []string{tmpl.Greeting, tmpl.Message, tmpl.Closing} {
		if p = strings.TrimSpace(replacer.Replace(p)); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " "), tmpl.Language
}

// spokenRegistration spaces out a plate so text-to-speech reads each character.
func spokenRegistration(reg string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.ReplaceAll(reg, " ", "")) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func daysText(language string, days int) string {
	if language == "hi" {
		switch {
		case days < 0:
			return fmt.Sprintf("%d दिन पहले समाप्त हो चुका है", -days)
		case days == 0:
			return "आज समाप्त हो रहा है"
		case days == 1:
			return "कल समाप्त हो रहा है"
		default:
			return fmt.Sprintf("%d दिनों में समाप्त हो रहा है", days)
		}
	}

	switch {
	case days < 0:
		return fmt.Sprintf("expired %d days ago", -days)
	case days == 0:
		return "expires today"
	case days == 1:
		return "expires tomorrow"
	default:
		return fmt.Sprintf("expires in %d days", days)
	}
}
