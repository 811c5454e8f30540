// Package urlutil содержит утилиты для безопасного логирования URL.
package urlutil

import "net/url"

// MaskURL скрывает path и query URL, которые могут содержать токены
// или credentials. В логи попадают только scheme и host:
//
//	https://push.example.com/metrics/job/dbakit → https://push.example.com/***
//
// Для строки, не являющейся абсолютным URL, возвращается маркер
// "***invalid-url***" — сырое значение в логи не попадает.
func MaskURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "***invalid-url***"
	}
	return u.Scheme + "://" + u.Host + "/***"
}
