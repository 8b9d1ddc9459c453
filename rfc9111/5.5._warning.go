package rfc9111

// §  5.5.  Warning
// §
// §     The "Warning" header field was used to carry additional information
// §     about the status or transformation of a message that might not be
// §     reflected in the status code.  This specification obsoletes it, as it
// §     is not widely generated or surfaced to users.  The information it
// §     carried can be gleaned from examining other header fields, such as
// §     Age.