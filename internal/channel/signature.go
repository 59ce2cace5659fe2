package channel

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

const signaturePrefix = "sha256="

// Provider describes where a channel carries its webhook signature.
type Provider struct {
	Name    string
	Headers []string
}

// Known providers, keyed by channel name.
var (
	WhatsApp = Provider{
		Name:    ChannelWhatsApp,
		Headers: []string{"X-Hub-Signature-256", "X-Whatsapp-Signature-256", "X-Webhook-Signature"},
	}
	Telephony = Provider{
		Name:    ChannelTelephony,
		Headers: []string{"X-Telephony-Signature", "X-Provider-Signature", "X-Webhook-Signature"},
	}
)

// Verify checks the HMAC-SHA256 signature of body against secret.
// An empty secret disables verification.
func (p Provider) Verify(header http.Header, body []byte, secret string) error {
	if secret == "" {
		return nil
	}
	signature := p.headerValue(header)
	if signature == "" {
		return &SignatureError{Message: "missing " + p.Name + " signature header"}
	}
	provided := strings.TrimPrefix(signature, signaturePrefix)
	expected := hexDigest(body, secret)
	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return &SignatureError{Message: "invalid " + p.Name + " signature"}
	}
	return nil
}

func (p Provider) headerValue(header http.Header) string {
	for _, name := range p.Headers {
		if v := strings.TrimSpace(header.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

// Sign returns the header value a provider would send for body.
func Sign(body []byte, secret string) string {
	return signaturePrefix + hexDigest(body, secret)
}

func hexDigest(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
