package amendement

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const sampleSenateurs = `%Sénateurs
Matricule,Qualité,Nom usuel,Prénom usuel,État,Groupe politique
14032X,M.,GRAND,Jean-Pierre,ACTIF,Les Républicains
19034b,Mme,DURAND,Marie,ACTIF,Union Centriste
99001A,M.,ANCIEN,Paul,ANCIEN,Socialiste
`

func TestParseSenateurs(t *testing.T) {
	senateurs, parseErr := ParseSenateurs(strings.NewReader(sampleSenateurs))
	if parseErr != nil {
		t.Fatalf("ParseSenateurs returned error: %v", parseErr)
	}
	if len(senateurs) != 2 {
		t.Fatalf("got %d senateurs, want 2 active ones", len(senateurs))
	}

	grand, found := senateurs.Lookup("14032X")
	if !found || grand.Nom != "GRAND" || grand.Prenom != "Jean-Pierre" || grand.Groupe != "Les Républicains" {
		t.Errorf("Lookup(14032X) = %+v, %v", grand, found)
	}
	if _, found := senateurs.Lookup("19034b"); !found {
		t.Error("lookup should not depend on the case of the matricule")
	}
	if _, found := senateurs.Lookup("99001A"); found {
		t.Error("former senators should not be listed")
	}
}

func TestParseSenateursMissingHeader(t *testing.T) {
	if _, parseErr := ParseSenateurs(strings.NewReader("a,b\n1,2\n")); parseErr == nil {
		t.Error("ParseSenateurs succeeded without a header, want error")
	}
}

func TestRegistryCache(t *testing.T) {
	loads := 0
	cache := NewRegistryCache(func(ctx context.Context) (Senateurs, error) {
		loads++
		return Senateurs{"14032X": {Matricule: "14032X", Groupe: "LR"}}, nil
	})

	for range 3 {
		registry, loadErr := cache.Get(context.Background())
		if loadErr != nil {
			t.Fatalf("Get returned error: %v", loadErr)
		}
		if _, found := registry.Lookup("14032X"); !found {
			t.Error("cached registry is missing 14032X")
		}
	}
	if loads != 1 {
		t.Errorf("loader called %d times, want 1", loads)
	}

	if _, loadErr := cache.Reload(context.Background()); loadErr != nil {
		t.Fatalf("Reload returned error: %v", loadErr)
	}
	if loads != 2 {
		t.Errorf("loader called %d times after reload, want 2", loads)
	}
}

func TestRegistryCacheLoadFailure(t *testing.T) {
	errUnavailable := errors.New("unavailable")
	fail := true
	cache := NewRegistryCache(func(ctx context.Context) (Senateurs, error) {
		if fail {
			return nil, errUnavailable
		}
		return Senateurs{}, nil
	})

	if _, loadErr := cache.Get(context.Background()); !errors.Is(loadErr, errUnavailable) {
		t.Fatalf("Get error = %v, want %v", loadErr, errUnavailable)
	}

	fail = false
	if _, loadErr := cache.Get(context.Background()); loadErr != nil {
		t.Errorf("Get after recovery returned error: %v", loadErr)
	}
}
