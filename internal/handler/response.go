// Package handler は編集コアのHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/go-playground/validator.v9"

	"github.com/ngucho/scoop-afrique-sub001/internal/middleware"
	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// newRequestValidator はリクエストボディのバリデーターを生成する。
// エラーのフィールド名にはjsonタグの名前を使う。
func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var requestValidator = newRequestValidator()

// decodeRequest はJSONボディをdstにデコードし、validateタグで検証する。
// 失敗した場合はエラーレスポンスを書き込んでfalseを返す。
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return false
	}

	if err := requestValidator.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			handleServiceError(w, err)
			return false
		}
		fields := make([]model.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			reason := fe.Tag()
			if fe.Param() != "" {
				reason += "=" + fe.Param()
			}
			fields = append(fields, model.FieldError{Field: fe.Field(), Reason: reason})
		}
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(fields))
		return false
	}
	return true
}

// writeJSON はステータスコードとJSONボディを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse はAPIErrorを統一フォーマットで書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// writeUnauthorized は呼び出し元が解決できない場合の401を書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインし直してください。",
	})
}

// writeStoreUnavailable はデータストア未設定時の503を書き込む。
func writeStoreUnavailable(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusServiceUnavailable, model.NewStoreUnavailableError())
}

// callerFrom はリクエストコンテキストから呼び出し元を取り出す。
// 取り出せない場合は401を書き込んでfalseを返す。
func callerFrom(w http.ResponseWriter, r *http.Request) (model.Caller, bool) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return model.Caller{}, false
	}
	return caller, true
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeArticleLocked:
		return http.StatusLocked
	case model.ErrCodeNotLockHolder, model.ErrCodeEditForbidden,
		model.ErrCodeCommentDeleteForbidden, model.ErrCodeRoleForbidden:
		return http.StatusForbidden
	case model.ErrCodeArticleNotFound, model.ErrCodeRevisionNotFound,
		model.ErrCodeUserEmailNotFound, model.ErrCodeCollaboratorNotFound,
		model.ErrCodeEditorialCommentNotFound, model.ErrCodeProfileNotFound:
		return http.StatusNotFound
	case model.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case model.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parsePositiveInt はクエリ・パスパラメータを正の整数として解釈する。
// 空または不正な値の場合はfallbackを返す。
func parsePositiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
