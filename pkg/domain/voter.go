package domain

import dErrors "votacao/pkg/domain-errors"

// VoterIDLength is the number of digits in a national ID (CPF).
const VoterIDLength = 11

// VoterID is an 11-digit national identifier.
type VoterID string

func (v VoterID) String() string { return string(v) }

// ParseVoterID checks the digits-only format. It does not verify CPF check
// digits; that is the eligibility authority's job.
func ParseVoterID(s string) (VoterID, error) {
	if len(s) != VoterIDLength {
		return "", dErrors.New(dErrors.CodeInvalidVoterID, "CPF must be 11 digits")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", dErrors.New(dErrors.CodeInvalidVoterID, "CPF must be 11 digits")
		}
	}
	return VoterID(s), nil
}

// ValidCPFChecksum reports whether v carries valid CPF check digits.
// Repeated-digit numbers such as 11111111111 are rejected.
func ValidCPFChecksum(v VoterID) bool {
	s := string(v)
	if len(s) != VoterIDLength {
		return false
	}
	allSame := true
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}
	return checkDigit(s[:9], 10) == int(s[9]-'0') && checkDigit(s[:10], 11) == int(s[10]-'0')
}

func checkDigit(digits string, weight int) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * (weight - i)
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}
