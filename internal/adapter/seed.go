package adapter

import (
	"book-catalog/internal/core/model"
	"context"
	"fmt"
)

var seedBooks = []model.RecordInput{
	{Title: "Things Fall Apart", Author: "Chinua Achebe", Year: "1958", Language: "English", Country: "Nigeria", Pages: "209", Link: "en.wikipedia.org/wiki/Things_Fall_Apart"},
	{Title: "Fairy tales", Author: "Hans Christian Andersen", Year: "1836", Language: "Danish", Country: "Denmark", Pages: "784", Link: "en.wikipedia.org/wiki/Fairy_Tales_Told_for_Children._First_Collection."},
	{Title: "The Divine Comedy", Author: "Dante Alighieri", Year: "1315", Language: "Italian", Country: "Italy", Pages: "928", Link: "en.wikipedia.org/wiki/Divine_Comedy"},
	{Title: "The Epic Of Gilgamesh", Author: "Unknown", Year: "-1700", Language: "Akkadian", Country: "Sumer and Akkadian Empire", Pages: "160", Link: "en.wikipedia.org/wiki/Epic_of_Gilgamesh"},
	{Title: "The Book Of Job", Author: "Unknown", Year: "-600", Language: "Hebrew", Country: "Achaemenid Empire", Pages: "176", Link: "en.wikipedia.org/wiki/Book_of_Job"},
	{Title: "One Thousand and One Nights", Author: "Unknown", Year: "1200", Language: "Arabic", Country: "India/Iran/Iraq/Egypt/Tajikistan", Pages: "288", Link: "en.wikipedia.org/wiki/One_Thousand_and_One_Nights"},
	{Title: "Njál's Saga", Author: "Unknown", Year: "1350", Language: "Old Norse", Country: "Iceland", Pages: "384", Link: "en.wikipedia.org/wiki/Nj%C3%A1ls_saga"},
	{Title: "Pride and Prejudice", Author: "Jane Austen", Year: "1813", Language: "English", Country: "United Kingdom", Pages: "226", Link: "en.wikipedia.org/wiki/Pride_and_Prejudice"},
	{Title: "Le Père Goriot", Author: "Honoré de Balzac", Year: "1835", Language: "French", Country: "France", Pages: "443", Link: "en.wikipedia.org/wiki/Le_P%C3%A8re_Goriot"},
	{Title: "Molloy, Malone Dies, The Unnamable, the trilogy", Author: "Samuel Beckett", Year: "1952", Language: "French, English", Country: "Republic of Ireland", Pages: "256", Link: "en.wikipedia.org/wiki/Molloy_(novel)"},
	{Title: "The Decameron", Author: "Giovanni Boccaccio", Year: "1351", Language: "Italian", Country: "Italy", Pages: "1024", Link: "en.wikipedia.org/wiki/The_Decameron"},
	{Title: "Ficciones", Author: "Jorge Luis Borges", Year: "1965", Language: "Spanish", Country: "Argentina", Pages: "224", Link: "en.wikipedia.org/wiki/Ficciones"},
	{Title: "Wuthering Heights", Author: "Emily Brontë", Year: "1847", Language: "English", Country: "United Kingdom", Pages: "342", Link: "en.wikipedia.org/wiki/Wuthering_Heights"},
	{Title: "The Stranger", Author: "Albert Camus", Year: "1942", Language: "French", Country: "Algeria, French Empire", Pages: "185", Link: "en.wikipedia.org/wiki/The_Stranger_(novel)"},
	{Title: "Poems", Author: "Paul Celan", Year: "1952", Language: "German", Country: "Romania, France", Pages: "320", Link: ""},
	{Title: "Journey to the End of the Night", Author: "Louis-Ferdinand Céline", Year: "1932", Language: "French", Country: "France", Pages: "505", Link: "en.wikipedia.org/wiki/Journey_to_the_End_of_the_Night"},
	{Title: "Don Quijote De La Mancha", Author: "Miguel de Cervantes", Year: "1610", Language: "Spanish", Country: "Spain", Pages: "1056", Link: "en.wikipedia.org/wiki/Don_Quixote"},
	{Title: "The Canterbury Tales", Author: "Geoffrey Chaucer", Year: "1450", Language: "English", Country: "England", Pages: "544", Link: "en.wikipedia.org/wiki/The_Canterbury_Tales"},
	{Title: "Stories", Author: "Anton Chekhov", Year: "1886", Language: "Russian", Country: "Russia", Pages: "194", Link: "en.wikipedia.org/wiki/List_of_short_stories_by_Anton_Chekhov"},
	{Title: "Nostromo", Author: "Joseph Conrad", Year: "1904", Language: "English", Country: "United Kingdom", Pages: "320", Link: "en.wikipedia.org/wiki/Nostromo"},
	{Title: "Great Expectations", Author: "Charles Dickens", Year: "1861", Language: "English", Country: "United Kingdom", Pages: "194", Link: "en.wikipedia.org/wiki/Great_Expectations"},
	{Title: "Jacques the Fatalist", Author: "Denis Diderot", Year: "1796", Language: "French", Country: "France", Pages: "596", Link: "en.wikipedia.org/wiki/Jacques_the_Fatalist"},
	{Title: "Berlin Alexanderplatz", Author: "Alfred Döblin", Year: "1929", Language: "German", Country: "Germany", Pages: "600", Link: "en.wikipedia.org/wiki/Berlin_Alexanderplatz"},
	{Title: "Crime and Punishment", Author: "Fyodor Dostoevsky", Year: "1866", Language: "Russian", Country: "Russia", Pages: "551", Link: "en.wikipedia.org/wiki/Crime_and_Punishment"},
	{Title: "The Idiot", Author: "Fyodor Dostoevsky", Year: "1869", Language: "Russian", Country: "Russia", Pages: "656", Link: "en.wikipedia.org/wiki/The_Idiot"},
}

// Seed loads n records with ids 1..n into repo, cycling through the built-in
// list with a volume suffix once it runs out. It fails if any of those ids is
// already taken.
func Seed(ctx context.Context, repo *BookRepo, n int) error {
	for i := 0; i < n; i++ {
		in := seedBooks[i%len(seedBooks)]
		if round := i / len(seedBooks); round > 0 {
			in.Title = fmt.Sprintf("%s (vol. %d)", in.Title, round+1)
		}
		if _, err := repo.Put(ctx, in.WithID(i+1)); err != nil {
			return fmt.Errorf("seed book %d: %w", i+1, err)
		}
	}
	return nil
}
