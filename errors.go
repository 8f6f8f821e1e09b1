package leadscout

import "errors"

var (
	// ErrNoSearcher is returned by Run when no search collaborator was
	// configured.
	ErrNoSearcher = errors.New("leadscout: searcher is required")

	// ErrPersonalDomain is returned by Run when the target domain is a
	// consumer webmail provider. Probing personal mailboxes is a policy
	// violation, not a validation outcome.
	ErrPersonalDomain = errors.New("leadscout: target domain is a personal webmail provider")

	// ErrInvalidSMTPOptions is returned by Run when SMTP probing is
	// enabled with an unusable identity.
	ErrInvalidSMTPOptions = errors.New("leadscout: invalid SMTP options")
)
