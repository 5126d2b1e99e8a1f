package rule_test

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/artguard/artguard/pkg/rule"
)

// serverSection 模拟配置段，与 configs 包的 rule 标签风格一致.
type serverSection struct {
	Host string `rule:"required,ip"`
	Port int    `rule:"min=1,max=65535"`
}

func TestEngine(t *testing.T) {
	if rule.Engine() == nil {
		t.Error("Engine() returned nil")
	}
}

func TestValidateStruct(t *testing.T) {
	cases := []struct {
		name    string
		in      serverSection
		wantErr bool
	}{
		{"valid", serverSection{Host: "0.0.0.0", Port: 8080}, false},
		{"missing host", serverSection{Port: 8080}, true},
		{"host not an ip", serverSection{Host: "localhost", Port: 8080}, true},
		{"port out of range", serverSection{Host: "127.0.0.1", Port: 70000}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := rule.ValidateStruct(tc.in)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateStruct(%+v) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
		})
	}
}

func TestValidateVar(t *testing.T) {
	if err := rule.ValidateVar("http://minio:9000", "required,url"); err != nil {
		t.Errorf("valid url rejected: %v", err)
	}

	if err := rule.ValidateVar("not a url", "required,url"); err == nil {
		t.Error("invalid url accepted")
	}

	if err := rule.ValidateVar(30, "min=1,max=365"); err != nil {
		t.Errorf("valid day count rejected: %v", err)
	}

	if err := rule.ValidateVar(0, "min=1,max=365"); err == nil {
		t.Error("zero day count accepted")
	}
}

func TestRegisterValidation(t *testing.T) {
	// ULID 为 26 位 Crockford base32
	err := rule.RegisterValidation("scan_id", func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && len(s) == 26
	})
	if err != nil {
		t.Fatalf("register validation: %v", err)
	}

	if err := rule.ValidateVar("01ARZ3NDEKTSV4RRFFQ69G5FAV", "scan_id"); err != nil {
		t.Errorf("valid scan id rejected: %v", err)
	}

	if err := rule.ValidateVar("short", "scan_id"); err == nil {
		t.Error("invalid scan id accepted")
	}
}

func TestRegisterAlias(t *testing.T) {
	rule.RegisterAlias("bucket_name", "required,min=3,max=63")

	if err := rule.ValidateVar("artguard-artworks", "bucket_name"); err != nil {
		t.Errorf("valid bucket name rejected: %v", err)
	}

	if err := rule.ValidateVar("ab", "bucket_name"); err == nil {
		t.Error("too short bucket name accepted")
	}
}
