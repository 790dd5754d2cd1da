// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

/*
Package takapi is a client for the TAK Server management REST API (Marti).

A Client pairs a Server Endpoint with one of three authentication strategies,
chosen once from the Credential it is built with:

  - PasswordCredential: exchanged for an OAuth token on the WebTAK port, then
    sent as the access_token cookie
  - TokenCredential: a pre-issued token, sent as the access_token cookie
  - CertificateCredential: mutual TLS with a transport built per call

All calls go through Client.Fetch, which resolves paths against the API port,
encodes bodies, applies the optional rate limiter and circuit breaker, and
turns non-success statuses into *APIError. Resource groups hang off the
client:

	client, err := takapi.Connect(ctx, takapi.NewEndpoint("tak.example.org"), cred)
	missions, err := client.Missions.List(ctx, takapi.ListMissionsInput{})
	layers, err := client.Layers.List(ctx, "Wildfire-Ops", &takapi.MissionOptions{Token: tok})

# Mission addressing

Every mission-scoped call takes a name. A name shaped like a GUID
(see IsGUID) is addressed through /Marti/api/missions/guid/{guid}; anything
else is trimmed, percent-encoded and addressed through
/Marti/api/missions/{name}. A non-empty MissionOptions.Token is sent as
"MissionAuthorization: Bearer <token>".

The client keeps no cache and never retries.
*/
package takapi
