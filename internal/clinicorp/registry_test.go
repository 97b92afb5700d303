package clinicorp

import (
	"context"
	"io"
	"testing"

	"github.com/vitalcred/clinic-platform/pkg/logging"
)

func TestResolverRegistryReusesPerClinicResolver(t *testing.T) {
	source := &fakeSource{cred: testCredential()}
	rr := NewResolverRegistry(source, 0, logging.NewWithOutput("error", io.Discard))

	a := rr.For("clinic-1")
	if rr.For("clinic-1") != a {
		t.Fatal("same clinic must get the same resolver")
	}
	if rr.For("clinic-2") == a {
		t.Fatal("different clinics must get different resolvers")
	}

	if _, err := a.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if rr.For("clinic-1").Resolve() == nil {
		t.Fatal("resolver state must survive registry lookups")
	}
}
