package awscloud

import (
	"errors"
	"net/http"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/zhang1980s/web-stack-provisioner/provision"
)

// Error codes the services use when the caller's credentials are missing,
// invalid or insufficient.
var permissionCodes = map[string]bool{
	"AccessDenied":                true,
	"AccessDeniedException":       true,
	"UnauthorizedOperation":       true,
	"AuthFailure":                 true,
	"InvalidClientTokenId":        true,
	"UnrecognizedClientException": true,
	"SignatureDoesNotMatch":       true,
	"ExpiredToken":                true,
}

func isPermissionError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && permissionCodes[apiErr.ErrorCode()] {
		return true
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusForbidden {
		return true
	}
	return false
}

func classify(resource, name string, err error) error {
	if isPermissionError(err) {
		return &provision.PermissionError{Resource: resource, Name: name, Err: err}
	}
	return &provision.ResourceCreationError{Resource: resource, Name: name, Err: err}
}

func classifyPolicy(bucket string, err error) error {
	if isPermissionError(err) {
		return &provision.PermissionError{Resource: provision.KindBucketPolicy, Name: bucket, Err: err}
	}
	return &provision.PolicyAttachmentError{Bucket: bucket, Err: err}
}

func classifyRead(resource, name string, err error) error {
	if isPermissionError(err) {
		return &provision.PermissionError{Resource: resource, Name: name, Err: err}
	}
	return err
}
