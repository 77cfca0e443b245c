package provision

import (
	"errors"
	"fmt"
)

// ResourceCreationError means the provider rejected a create request:
// invalid parameters, exhausted quota or a duplicate name.
type ResourceCreationError struct {
	Resource string
	Name     string
	Err      error
}

func (e *ResourceCreationError) Error() string {
	return fmt.Sprintf("creating %s %q: %v", e.Resource, e.Name, e.Err)
}

func (e *ResourceCreationError) Unwrap() error { return e.Err }

// PermissionError means the credentials lack the access a call requires.
type PermissionError struct {
	Resource string
	Name     string
	Err      error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied on %s %q: %v", e.Resource, e.Name, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// PolicyAttachmentError means a bucket policy could not be attached, either
// because the document is invalid or because the bucket does not exist.
type PolicyAttachmentError struct {
	Bucket string
	Err    error
}

func (e *PolicyAttachmentError) Error() string {
	return fmt.Sprintf("attaching policy to bucket %q: %v", e.Bucket, e.Err)
}

func (e *PolicyAttachmentError) Unwrap() error { return e.Err }

// NotReadyError is returned when the readiness wait gives up before the
// database instance reports an endpoint.
type NotReadyError struct {
	Identifier string
	Status     string
	Err        error
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("database instance %q not ready (last status %q): %v", e.Identifier, e.Status, e.Err)
}

func (e *NotReadyError) Unwrap() error { return e.Err }

// IsResourceCreation reports whether err is, or wraps, a ResourceCreationError.
func IsResourceCreation(err error) bool {
	var target *ResourceCreationError
	return errors.As(err, &target)
}

// IsPermission reports whether err is, or wraps, a PermissionError.
func IsPermission(err error) bool {
	var target *PermissionError
	return errors.As(err, &target)
}

// IsPolicyAttachment reports whether err is, or wraps, a PolicyAttachmentError.
func IsPolicyAttachment(err error) bool {
	var target *PolicyAttachmentError
	return errors.As(err, &target)
}

// creationError keeps typed errors from the collaborator and files anything
// else under ResourceCreationError.
func creationError(resource, name string, err error) error {
	if err == nil {
		return nil
	}
	if IsResourceCreation(err) || IsPermission(err) || IsPolicyAttachment(err) {
		return err
	}
	return &ResourceCreationError{Resource: resource, Name: name, Err: err}
}

func policyError(bucket string, err error) error {
	if err == nil {
		return nil
	}
	if IsPermission(err) || IsPolicyAttachment(err) {
		return err
	}
	return &PolicyAttachmentError{Bucket: bucket, Err: err}
}
