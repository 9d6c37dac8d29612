package i18n

import "testing"

func TestGetCatalogFallback(t *testing.T) {
	base := GetCatalog("en-US")
	if base == nil {
		t.Fatal("expected base catalog")
	}
	if fallback := GetCatalog("missing-locale"); fallback != base {
		t.Fatal("expected fallback to en-US catalog")
	}
	if fallback := GetCatalog(""); fallback != base {
		t.Fatal("expected empty locale to use en-US catalog")
	}
}

func TestGetCatalogMatchesRegion(t *testing.T) {
	custom := NewCatalog("pt-BR", map[Code]string{CodeAPIKeyRevoked: "revogada"})
	RegisterCatalog("pt-BR", custom)
	if got := GetCatalog("pt"); got != custom {
		t.Fatalf("catalog locale = %s, want pt-BR", got.Locale())
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "hello {{.Name}}",
	})

	if cat.Format("unknown", nil) != "unknown" {
		t.Fatal("expected code fallback when template missing")
	}
	if got := cat.Format("code", nil); got != "hello " {
		t.Fatalf("format = %q, want %q", got, "hello ")
	}
}

func TestFormatTemplateErrorFallback(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "{{ if .Name }}",
	})
	if cat.Format("code", map[string]string{"Name": "X"}) != "{{ if .Name }}" {
		t.Fatal("expected template fallback on parse error")
	}
}

func TestBaseCatalogDistinguishesKeyFailures(t *testing.T) {
	cat := GetCatalog(BaseLocale)
	invalid := cat.Format(CodeInvalidAPIKey, nil)
	revoked := cat.Format(CodeAPIKeyRevoked, nil)
	if invalid == revoked {
		t.Fatalf("expected distinct messages, both %q", invalid)
	}
}

func TestBaseCatalogRendersMetadata(t *testing.T) {
	got := GetCatalog(BaseLocale).Format(CodeBountyAlreadyLocked, map[string]string{"BountyID": "7"})
	want := "Bounty 7 is already reserved by another verifier."
	if got != want {
		t.Fatalf("format = %q, want %q", got, want)
	}
}
