/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

// User is the identity record returned by the auth endpoint
type User struct {
	Id             int64  `json:"id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	TelegramWallet string `json:"telegram_wallet"`
}

// Session pairs the authenticated user with the opaque bearer token
type Session struct {
	User  User
	Token string
}

// SameIdentity reports whether two sessions belong to the same user and token.
func (s Session) SameIdentity(other Session) bool {
	return s.User.Id == other.User.Id && s.Token == other.Token
}
