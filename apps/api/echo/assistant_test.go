package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sejali/core/user"
)

func Test_assistantApi(t *testing.T) {
	resetDB(t)
	_, token := createUser(t, "assistant@test.sa", user.RoleStudent)

	runHTTPTests(t, []httpTest{
		{name: "chat: not configured", method: http.MethodPost, path: "/api/ai/chat", token: token, body: map[string]string{"message": "hi"}, wantCode: http.StatusServiceUnavailable},
		{name: "career: required answers", method: http.MethodPost, path: "/api/career/analyze", token: token, body: map[string]interface{}{}, wantCode: http.StatusBadRequest},
	})

	body := map[string]interface{}{"answers": []map[string]interface{}{{"questionId": 1, "answer": "design"}}}
	rec := serve(t, http.MethodPost, "/api/career/analyze", token, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "suggestedMajor")
}
