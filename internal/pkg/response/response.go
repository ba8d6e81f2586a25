package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"

	"github.com/xxxsen/mreply/internal/pkg/errcode"
)

type codeErr struct {
	code errcode.Code
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

func (e codeErr) Code() uint32 {
	return uint32(e.code)
}

func AsCodeErr(code errcode.Code, msg string) error {
	return codeErr{code: code, msg: msg}
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error answers with HTTP 200 and the failure carried in the envelope code,
// which is what the client keys on.
func Error(c *gin.Context, code errcode.Code, message string) {
	proxyutil.FailJson(c, 200, AsCodeErr(code, message))
}
