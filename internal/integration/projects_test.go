package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestCreateProject(t *testing.T) {
	client := NewTestClient(t)

	resp := client.POST("/projects", map[string]string{
		"slug":         "my-app",
		"repoFullName": "acme/my-app",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	result := ParseResponse[struct {
		Data struct {
			ID           string `json:"id"`
			Slug         string `json:"slug"`
			RepoFullName string `json:"repoFullName"`
		} `json:"data"`
	}](t, resp)

	if result.Data.Slug != "my-app" {
		t.Errorf("expected slug 'my-app', got %q", result.Data.Slug)
	}
	if result.Data.RepoFullName != "acme/my-app" {
		t.Errorf("expected repoFullName 'acme/my-app', got %q", result.Data.RepoFullName)
	}
	if result.Data.ID == "" {
		t.Error("expected a non-empty project id")
	}
}

func TestCreateProject_InvalidSlug(t *testing.T) {
	client := NewTestClient(t)

	resp := client.POST("/projects", map[string]string{
		"slug":         "Not A Valid Slug!",
		"repoFullName": "acme/my-app",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateProject_InvalidRepoFullName(t *testing.T) {
	client := NewTestClient(t)

	resp := client.POST("/projects", map[string]string{
		"slug":         "my-app",
		"repoFullName": "not-a-full-name",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetProject(t *testing.T) {
	client := NewTestClient(t)

	created := client.POST("/projects", map[string]string{
		"slug":         "get-me",
		"repoFullName": "acme/get-me",
	})
	createResult := ParseResponse[struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, created)
	created.Body.Close()

	resp := client.GET("/projects/" + createResult.Data.ID)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	result := ParseResponse[struct {
		Data struct {
			Slug string `json:"slug"`
		} `json:"data"`
	}](t, resp)
	if result.Data.Slug != "get-me" {
		t.Errorf("expected slug 'get-me', got %q", result.Data.Slug)
	}
}

func TestGetProject_NotFound(t *testing.T) {
	client := NewTestClient(t)

	resp := client.GET("/projects/" + uuid.New().String())
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateDeployment(t *testing.T) {
	client := NewTestClient(t)

	created := client.POST("/projects", map[string]string{
		"slug":         "deploy-me",
		"repoFullName": "acme/deploy-me",
	})
	project := ParseResponse[struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, created)
	created.Body.Close()

	resp := client.POST(fmt.Sprintf("/projects/%s/deployments", project.Data.ID), map[string]string{
		"commitSha": "abc1234",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	result := ParseResponse[struct {
		Data struct {
			ID        string `json:"id"`
			Status    string `json:"status"`
			CommitSHA string `json:"commitSha"`
		} `json:"data"`
	}](t, resp)

	if result.Data.Status != "queued" {
		t.Errorf("expected status 'queued', got %q", result.Data.Status)
	}
	if result.Data.CommitSHA != "abc1234" {
		t.Errorf("expected commitSha 'abc1234', got %q", result.Data.CommitSHA)
	}
}

func TestCreateDeployment_ProjectNotFound(t *testing.T) {
	client := NewTestClient(t)

	resp := client.POST(fmt.Sprintf("/projects/%s/deployments", uuid.New().String()), map[string]string{
		"commitSha": "abc1234",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListDeployments(t *testing.T) {
	client := NewTestClient(t)

	created := client.POST("/projects", map[string]string{
		"slug":         "list-me",
		"repoFullName": "acme/list-me",
	})
	project := ParseResponse[struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, created)
	created.Body.Close()

	for _, sha := range []string{"sha1", "sha2", "sha3"} {
		resp := client.POST(fmt.Sprintf("/projects/%s/deployments", project.Data.ID), map[string]string{
			"commitSha": sha,
		})
		resp.Body.Close()
	}

	resp := client.GET(fmt.Sprintf("/projects/%s/deployments", project.Data.ID))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	result := ParseResponse[struct {
		Data []struct {
			CommitSHA string `json:"commitSha"`
		} `json:"data"`
	}](t, resp)

	if len(result.Data) != 3 {
		t.Fatalf("expected 3 deployments, got %d", len(result.Data))
	}
}

func TestDeploymentLogs(t *testing.T) {
	client := NewTestClient(t)

	created := client.POST("/projects", map[string]string{
		"slug":         "logs-me",
		"repoFullName": "acme/logs-me",
	})
	project := ParseResponse[struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, created)
	created.Body.Close()

	deployed := client.POST(fmt.Sprintf("/projects/%s/deployments", project.Data.ID), map[string]string{
		"commitSha": "abc1234",
	})
	deployment := ParseResponse[struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, deployed)
	deployed.Body.Close()

	resp := client.GET("/deployments/" + deployment.Data.ID + "/logs")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCancelDeployment(t *testing.T) {
	client := NewTestClient(t)

	created := client.POST("/projects", map[string]string{
		"slug":         "cancel-me",
		"repoFullName": "acme/cancel-me",
	})
	project := ParseResponse[struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, created)
	created.Body.Close()

	deployed := client.POST(fmt.Sprintf("/projects/%s/deployments", project.Data.ID), map[string]string{
		"commitSha": "abc1234",
	})
	deployment := ParseResponse[struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, deployed)
	deployed.Body.Close()

	resp := client.POST("/deployments/"+deployment.Data.ID+"/cancel", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	result := ParseResponse[struct {
		Data struct {
			Status     string `json:"status"`
			FinishedAt string `json:"finishedAt"`
		} `json:"data"`
	}](t, resp)

	if result.Data.Status != "canceled" {
		t.Errorf("expected status 'canceled', got %q", result.Data.Status)
	}
	if result.Data.FinishedAt == "" {
		t.Error("expected finishedAt to be set")
	}
}

func TestCancelDeployment_NotFound(t *testing.T) {
	client := NewTestClient(t)

	resp := client.POST("/deployments/"+uuid.New().String()+"/cancel", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCancelDeployment_AlreadyFinished(t *testing.T) {
	client := NewTestClient(t)

	created := client.POST("/projects", map[string]string{
		"slug":         "cancel-twice",
		"repoFullName": "acme/cancel-twice",
	})
	project := ParseResponse[struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, created)
	created.Body.Close()

	deployed := client.POST(fmt.Sprintf("/projects/%s/deployments", project.Data.ID), map[string]string{
		"commitSha": "abc1234",
	})
	deployment := ParseResponse[struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, deployed)
	deployed.Body.Close()

	first := client.POST("/deployments/"+deployment.Data.ID+"/cancel", nil)
	first.Body.Close()
	if first.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on first cancel, got %d", first.StatusCode)
	}

	second := client.POST("/deployments/"+deployment.Data.ID+"/cancel", nil)
	defer second.Body.Close()

	if second.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on second cancel, got %d", second.StatusCode)
	}
}

func TestRecoveryMiddleware_PanicReturns500(t *testing.T) {
	client := NewTestClient(t)

	// The test server wires repos.NewHandler(nil); validating a repo
	// dereferences a nil *codehosting.Validator and panics. Recovery
	// middleware should turn that into a 500, not a dropped connection.
	resp := client.POST("/repos/validate", map[string]string{
		"fullName": "acme/my-app",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestIdempotency_SameKeyReturnsCachedResponse(t *testing.T) {
	client := NewTestClient(t)
	key := uuid.New().String()

	body := map[string]string{
		"slug":         "idempotent-app",
		"repoFullName": "acme/idempotent-app",
	}

	first := client.POSTWithHeaders("/projects", body, map[string]string{"X-Idempotency-Key": key})
	firstResult := ParseResponse[struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, first)
	first.Body.Close()

	if first.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 on first request, got %d", first.StatusCode)
	}

	second := client.POSTWithHeaders("/projects", body, map[string]string{"X-Idempotency-Key": key})
	defer second.Body.Close()
	secondResult := ParseResponse[struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, second)

	if secondResult.Data.ID != firstResult.Data.ID {
		t.Errorf("expected cached response with same id, got %q vs %q", firstResult.Data.ID, secondResult.Data.ID)
	}
}

func TestCorrelationId_ReturnsProvidedId(t *testing.T) {
	client := NewTestClient(t)
	correlationID := uuid.New().String()

	resp := client.POSTWithHeaders("/projects", map[string]string{
		"slug":         "correlated-app",
		"repoFullName": "acme/correlated-app",
	}, map[string]string{"X-Correlation-Id": correlationID})
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Correlation-Id"); got != correlationID {
		t.Errorf("expected correlation id %q, got %q", correlationID, got)
	}
}

func TestCorrelationId_GeneratedWhenNotProvided(t *testing.T) {
	client := NewTestClient(t)

	resp := client.POST("/projects", map[string]string{
		"slug":         "uncorrelated-app",
		"repoFullName": "acme/uncorrelated-app",
	})
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Correlation-Id"); got == "" {
		t.Error("expected a generated correlation id, got none")
	}
}

func TestResponseTime_IncludedInAllResponses(t *testing.T) {
	client := NewTestClient(t)

	resp := client.POST("/projects", map[string]string{
		"slug":         "timed-app",
		"repoFullName": "acme/timed-app",
	})
	defer resp.Body.Close()

	result := ParseResponse[struct {
		ResponseTime string `json:"responseTime"`
	}](t, resp)

	if result.ResponseTime == "" {
		t.Error("expected responseTime to be set")
	}
}
