/*
Package jwtx reads the payload of bearer access tokens issued by the admin
backend.

The package performs NO cryptographic verification. Decode base64url-decodes
the middle segment of a token and parses it as a claims map, nothing more.
The result is a hint used to refresh early and to filter the UI; the backend
validates every token it receives and is the only party whose answer counts.
Do not gate access to data on anything returned from here.

	claims, ok := jwtx.Decode(accessToken)
	if !ok || jwtx.IsExpiringSoon(accessToken, jwtx.DefaultRefreshThreshold) {
		// refresh before the next call
	}
*/
package jwtx
