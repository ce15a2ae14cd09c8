package config

import (
	"fmt"
	"strings"
)

const (
	BlobModeLocal = "local"
	BlobModeS3    = "s3"
	BlobModeAuto  = "auto"
)

// S3Config describes an S3-compatible bucket used for product pictures.
type S3Config struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKeyID       string
	SecretAccessKey   string
	PublicBaseURL     string // optional; presigned URLs are used when empty
	PresignTTLSeconds int
}

// MissingRequired lists the env keys that must be set before S3 can be used.
func (c S3Config) MissingRequired() []string {
	var missing []string
	for _, f := range []struct {
		key, value string
	}{
		{"S3_ENDPOINT", c.Endpoint},
		{"S3_BUCKET", c.Bucket},
		{"S3_ACCESS_KEY_ID", c.AccessKeyID},
		{"S3_SECRET_ACCESS_KEY", c.SecretAccessKey},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.key)
		}
	}
	return missing
}

func (c S3Config) IsConfigured() bool {
	return len(c.MissingRequired()) == 0
}

// IsEmpty reports whether no S3 key was provided at all.
func (c S3Config) IsEmpty() bool {
	return strings.TrimSpace(c.Endpoint+c.Region+c.Bucket+c.AccessKeyID+c.SecretAccessKey+c.PublicBaseURL) == ""
}

// Summary is safe to log: credentials are reported as set / not set.
func (c S3Config) Summary() string {
	return fmt.Sprintf("endpoint=%s region=%s bucket=%s public_base_url=%s presign_ttl=%ds access_key_id=%s secret_access_key=%s",
		nonEmptyOrDash(c.Endpoint),
		nonEmptyOrDash(c.Region),
		nonEmptyOrDash(c.Bucket),
		nonEmptyOrDash(c.PublicBaseURL),
		c.PresignTTLSeconds,
		SetOrNot(c.AccessKeyID),
		SetOrNot(c.SecretAccessKey),
	)
}

type BlobConfig struct {
	Mode string // local|s3|auto
	S3   S3Config
}

// SetOrNot masks a secret for logging.
func SetOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func nonEmptyOrDash(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "-"
	}
	return v
}
