// Package domain contains the core entities of the studydeck service:
// users, decks, and the cards they contain, together with the validation
// rules that keep them consistent. Entities here carry no persistence or
// transport concerns.
package domain
