// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ShriviCTO/shrivi/internal/config"
	"github.com/ShriviCTO/shrivi/internal/models"
)

// NotificationService sends transactional email: account verification on
// signup and low-stock alerts for the inventory team. With no SMTP host
// configured it degrades to logging, which is what local development wants.
type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

// SendVerificationEmail delivers the signup verification link. Registration
// treats a failure here as fatal and rolls the account back.
func (s *NotificationService) SendVerificationEmail(user *models.User, verificationToken string) error {
	template := s.getEmailTemplate("verification")

	data := map[string]interface{}{
		"Name":            user.Name,
		"VerificationURL": fmt.Sprintf("%s/verify-email?token=%s", s.config.Frontend.BaseURL, verificationToken),
	}

	subject := "Welcome to Shrivi - Verify your email"
	body, err := s.renderTemplate(template.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, subject, body)
}

// SendLowStockAlert emails the inventory team when a variant drops below its
// replenishment threshold.
func (s *NotificationService) SendLowStockAlert(variant *models.Variant) error {
	var product models.Product
	if err := s.db.First(&product, "id = ?", variant.ProductID).Error; err != nil {
		return fmt.Errorf("failed to load product for alert: %w", err)
	}

	var managers []models.User
	if err := s.db.
		Where("role IN ? AND status = ?",
			[]models.UserRole{models.RoleFounder, models.RoleInventoryManager},
			models.UserStatusActive).
		Find(&managers).Error; err != nil {
		return fmt.Errorf("failed to load alert recipients: %w", err)
	}

	data := map[string]interface{}{
		"ProductName":  product.Name,
		"VariantLabel": variant.Label,
		"Stock":        variant.Stock,
		"Threshold":    variant.LowStockThreshold,
		"InventoryURL": fmt.Sprintf("%s/admin/inventory/%s", s.config.Frontend.BaseURL, product.ID),
	}

	subject := fmt.Sprintf("Low stock: %s (%s)", product.Name, variant.Label)
	template := s.getEmailTemplate("low_stock")
	body, err := s.renderTemplate(template.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	for _, manager := range managers {
		if err := s.sendEmail(manager.Email, subject, body); err != nil {
			logrus.WithError(err).WithField("recipient", manager.Email).
				Warn("Failed to send low stock alert")
		}
	}
	return nil
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).
			Info("Email delivery skipped (SMTP not configured)")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"verification": {
			Subject: "Verify your email",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Welcome {{.Name}}!</h2>
	<p>Thanks for creating a Shrivi account. Please verify your email address by clicking the link below:</p>
	<a href="{{.VerificationURL}}">Verify Email</a>
	<p>Best regards,<br>Team Shrivi</p>
</body>
</html>`,
		},
		"low_stock": {
			Subject: "Low stock alert",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Low stock alert</h2>
	<p>{{.ProductName}} ({{.VariantLabel}}) is down to {{.Stock}} units, below its threshold of {{.Threshold}}.</p>
	<a href="{{.InventoryURL}}">Review inventory</a>
</body>
</html>`,
		},
	}

	if template, exists := templates[templateType]; exists {
		return template
	}

	return EmailTemplate{
		Subject: "Notification from Shrivi",
		Body:    `<p>{{.Message}}</p>`,
	}
}
