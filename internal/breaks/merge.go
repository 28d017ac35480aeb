package breaks

import "github.com/mmeshcher/cookiebreaks/internal/model"

// MergeByID возвращает новый список той же длины и порядка, что и existing,
// в котором элементы с совпадающим идентификатором заменены версиями из updates.
// Обновления с неизвестными идентификаторами отбрасываются.
func MergeByID(existing, updates []model.Break) []model.Break {
	byID := make(map[int64]model.Break, len(updates))
	for _, u := range updates {
		byID[u.ID] = u
	}

	res := make([]model.Break, len(existing))
	for i, e := range existing {
		if u, ok := byID[e.ID]; ok {
			res[i] = u
			continue
		}
		res[i] = e
	}
	return res
}

// BreaksFromClaims собирает перерывы из всех заявок в порядке их следования.
func BreaksFromClaims(claims []model.Claim) []model.Break {
	var res []model.Break
	for _, c := range claims {
		res = append(res, c.Breaks...)
	}
	return res
}
