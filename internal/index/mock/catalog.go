package mock

import (
	"fmt"

	"github.com/lazysearch/lazysearch/internal/index"
)

// Title is a catalog entry served by the mock backend.
type Title struct {
	ID    int
	Name  string
	Year  int
	Genre string
}

var movieCatalog = []Title{
	{ID: 603, Name: "The Matrix", Year: 1999, Genre: "scifi"},
	{ID: 550, Name: "Fight Club", Year: 1999, Genre: "drama"},
	{ID: 680, Name: "Pulp Fiction", Year: 1994, Genre: "crime"},
	{ID: 155, Name: "The Dark Knight", Year: 2008, Genre: "action"},
	{ID: 278, Name: "The Shawshank Redemption", Year: 1994, Genre: "drama"},
	{ID: 238, Name: "The Godfather", Year: 1972, Genre: "crime"},
	{ID: 27205, Name: "Inception", Year: 2010, Genre: "scifi"},
	{ID: 157336, Name: "Interstellar", Year: 2014, Genre: "scifi"},
	{ID: 120, Name: "The Lord of the Rings The Fellowship of the Ring", Year: 2001, Genre: "fantasy"},
	{ID: 24428, Name: "The Avengers", Year: 2012, Genre: "action"},
	{ID: 299536, Name: "Avengers Infinity War", Year: 2018, Genre: "action"},
	{ID: 299534, Name: "Avengers Endgame", Year: 2019, Genre: "action"},
	{ID: 438631, Name: "Dune", Year: 2021, Genre: "scifi"},
	{ID: 693134, Name: "Dune Part Two", Year: 2024, Genre: "scifi"},
	{ID: 346698, Name: "Barbie", Year: 2023, Genre: "comedy"},
	{ID: 872585, Name: "Oppenheimer", Year: 2023, Genre: "drama"},
	{ID: 19995, Name: "Avatar", Year: 2009, Genre: "scifi"},
	{ID: 545611, Name: "Everything Everywhere All at Once", Year: 2022, Genre: "scifi"},
	{ID: 1022789, Name: "Inside Out 2", Year: 2024, Genre: "animation"},
}

var seriesCatalog = []Title{
	{ID: 121361, Name: "Game of Thrones", Year: 2011, Genre: "fantasy"},
	{ID: 81189, Name: "Breaking Bad", Year: 2008, Genre: "crime"},
	{ID: 305288, Name: "Stranger Things", Year: 2016, Genre: "scifi"},
	{ID: 371572, Name: "House of the Dragon", Year: 2022, Genre: "fantasy"},
	{ID: 362472, Name: "Loki", Year: 2021, Genre: "scifi"},
	{ID: 80379, Name: "The Big Bang Theory", Year: 2007, Genre: "comedy"},
	{ID: 71663, Name: "The Simpsons", Year: 1989, Genre: "animation"},
	{ID: 79168, Name: "Friends", Year: 1994, Genre: "comedy"},
	{ID: 355567, Name: "The Boys", Year: 2019, Genre: "action"},
	{ID: 383275, Name: "Squid Game", Year: 2021, Genre: "drama"},
	{ID: 392256, Name: "The Last of Us", Year: 2023, Genre: "drama"},
	{ID: 273181, Name: "Better Call Saul", Year: 2015, Genre: "crime"},
	{ID: 361753, Name: "The Mandalorian", Year: 2019, Genre: "scifi"},
	{ID: 371028, Name: "Arcane", Year: 2021, Genre: "animation"},
}

// Catalog returns the built-in records for the named index. "movies" and
// "series" get their own titles; any other name gets both.
func Catalog(indexName string) []index.Hit {
	switch indexName {
	case "movies":
		return buildHits(movieCatalog, "movie")
	case "series":
		return buildHits(seriesCatalog, "series")
	default:
		return append(buildHits(movieCatalog, "movie"), buildHits(seriesCatalog, "series")...)
	}
}

func buildHits(titles []Title, kind string) []index.Hit {
	hits := make([]index.Hit, 0, len(titles))
	for _, t := range titles {
		hits = append(hits, index.Hit{
			"objectID": fmt.Sprintf("%s-%d", kind, t.ID),
			"title":    t.Name,
			"year":     t.Year,
			"type":     kind,
			"genre":    t.Genre,
		})
	}
	return hits
}
