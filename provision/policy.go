package provision

import (
	"encoding/json"
	"errors"
	"fmt"
)

const originAccessIdentityPrincipalPrefix = "arn:aws:iam::cloudfront:user/CloudFront Origin Access Identity "

// PolicyDocument is a bucket policy.
type PolicyDocument struct {
	Version   string            `json:"Version"`
	Statement []PolicyStatement `json:"Statement"`
}

// PolicyStatement is one element of the Statement array.
type PolicyStatement struct {
	Sid       string            `json:"Sid,omitempty"`
	Effect    string            `json:"Effect"`
	Principal map[string]string `json:"Principal"`
	Action    string            `json:"Action"`
	Resource  string            `json:"Resource"`
}

// OriginAccessIdentityPrincipal returns the IAM principal CloudFront uses for
// the origin access identity id.
func OriginAccessIdentityPrincipal(id string) string {
	return originAccessIdentityPrincipalPrefix + id
}

// BucketReadPolicy returns a document granting s3:GetObject on every object
// of bucket to the origin access identity id and to nobody else.
func BucketReadPolicy(version, bucket, identityID string) PolicyDocument {
	return PolicyDocument{
		Version: version,
		Statement: []PolicyStatement{
			{
				Sid:       "1",
				Effect:    "Allow",
				Principal: map[string]string{"AWS": OriginAccessIdentityPrincipal(identityID)},
				Action:    "s3:GetObject",
				Resource:  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
}

// GrantsOnlyTo checks that every statement of the document names exactly
// the origin access identity id as principal.
func (d PolicyDocument) GrantsOnlyTo(identityID string) error {
	if identityID == "" {
		return errors.New("origin access identity id is empty")
	}
	if len(d.Statement) == 0 {
		return errors.New("policy has no statements")
	}
	want := OriginAccessIdentityPrincipal(identityID)
	for i, st := range d.Statement {
		if len(st.Principal) != 1 || st.Principal["AWS"] != want {
			return fmt.Errorf("statement %d grants %v, want only %q", i, st.Principal, want)
		}
	}
	return nil
}

// JSON renders the document as sent to the provider.
func (d PolicyDocument) JSON() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
