package sqlgen_test

import (
	"strings"
	"testing"

	"github.com/strataform/strata/internal/sqlgen"
	"github.com/strataform/strata/pkg/model"
)

func TestActionPredicate(t *testing.T) {
	models := testModels()

	t.Run("permission rule combines membership and condition", func(t *testing.T) {
		comp := sqlgen.NewCompilation(models, false)
		doc := mustModel(t, models, "Document")

		got, err := comp.ActionPredicate(doc, model.ActionUpdate)
		if err != nil {
			t.Fatalf("ActionPredicate error: %v", err)
		}
		want := `((strata_has_any_role('admin', 'editor') OR strata_has_any_claim('doc:write')) AND (owner_id = current_setting('strata.user_id', true)))`
		if got != want {
			t.Errorf("predicate\n got:  %s\n want: %s", got, want)
		}
	})

	t.Run("declared policy gets tenant isolation prepended", func(t *testing.T) {
		comp := sqlgen.NewCompilation(models, true)
		post := mustModel(t, models, "Post")

		got, err := comp.ActionPredicate(post, model.ActionRead)
		if err != nil {
			t.Fatalf("ActionPredicate error: %v", err)
		}
		want := `(tenant_id = current_setting('strata.tenant_id', true) AND (published = true OR tenant_id = current_setting('strata.tenant_id', true)))`
		if got != want {
			t.Errorf("predicate\n got:  %s\n want: %s", got, want)
		}
	})

	t.Run("undeclared action defaults to tenant isolation", func(t *testing.T) {
		comp := sqlgen.NewCompilation(models, true)
		post := mustModel(t, models, "Post")

		got, err := comp.ActionPredicate(post, model.ActionDelete)
		if err != nil {
			t.Fatalf("ActionPredicate error: %v", err)
		}
		want := `tenant_id = current_setting('strata.tenant_id', true)`
		if got != want {
			t.Errorf("predicate\n got:  %s\n want: %s", got, want)
		}
	})

	t.Run("undeclared action without multitenancy allows unconditionally", func(t *testing.T) {
		comp := sqlgen.NewCompilation(models, false)
		post := mustModel(t, models, "Post")

		got, err := comp.ActionPredicate(post, model.ActionDelete)
		if err != nil {
			t.Fatalf("ActionPredicate error: %v", err)
		}
		if got != "true" {
			t.Errorf("predicate = %q, want %q", got, "true")
		}
	})
}

func TestGeneratePolicies(t *testing.T) {
	models := testModels()
	comp := sqlgen.NewCompilation(models, true)

	policies, err := comp.GeneratePolicies(nil)
	if err != nil {
		t.Fatalf("GeneratePolicies error: %v", err)
	}

	wantCount := len(models) * len(model.Actions)
	if len(policies) != wantCount {
		t.Fatalf("got %d policies, want %d", len(policies), wantCount)
	}

	// Declaration order for models, fixed order for actions.
	if policies[0].Model != "User" || policies[0].Action != model.ActionRead {
		t.Errorf("first policy = %s.%s, want User.read", policies[0].Model, policies[0].Action)
	}
	if policies[1].Action != model.ActionCreate {
		t.Errorf("second action = %s, want create", policies[1].Action)
	}

	for _, p := range policies {
		prefix := "CREATE POLICY " + p.Table + "_" + string(p.Action) + " ON " + p.Table
		if !strings.HasPrefix(p.SQL, prefix) {
			t.Errorf("policy SQL %q does not start with %q", p.SQL, prefix)
		}
		if p.Action == model.ActionCreate {
			if !strings.Contains(p.SQL, "FOR INSERT WITH CHECK (") {
				t.Errorf("create policy %q is not a WITH CHECK policy", p.SQL)
			}
		} else if !strings.Contains(p.SQL, "USING (") {
			t.Errorf("policy %q has no USING clause", p.SQL)
		}
	}
}

func TestGenerateRLS(t *testing.T) {
	models := testModels()
	comp := sqlgen.NewCompilation(models, true)

	prefix := func(table string) string { return `"app".` + table }
	doc, err := comp.GenerateRLS(prefix)
	if err != nil {
		t.Fatalf("GenerateRLS error: %v", err)
	}

	for _, want := range []string{
		`ALTER TABLE "app".posts ENABLE ROW LEVEL SECURITY;`,
		`CREATE POLICY posts_read ON "app".posts FOR SELECT USING (`,
		`CREATE POLICY documents_update ON "app".documents FOR UPDATE USING (`,
		`CREATE POLICY comments_delete ON "app".comments FOR DELETE USING (`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q\n%s", want, doc)
		}
	}

	if strings.Contains(doc, "FOR INSERT USING") {
		t.Error("insert policies must use WITH CHECK, not USING")
	}

	again, err := comp.GenerateRLS(prefix)
	if err != nil {
		t.Fatalf("GenerateRLS error: %v", err)
	}
	if doc != again {
		t.Error("output is not byte-identical across runs")
	}
}
