package relational

// DDL per driver. Both dialects accept $n placeholders, "on conflict" and "returning", so the
// queries in relational.go are shared; only the column types differ.
var schemas = map[string][]string{
	"postgres": {
		`create table if not exists anime (
			id bigserial primary key,
			title varchar(255) not null,
			original_title varchar(255) not null default '',
			year int not null,
			synopsis text not null default '',
			episodes int not null,
			duration int not null,
			is_deleted boolean not null default false,
			created_at timestamptz not null,
			updated_at timestamptz not null,
			updated_by varchar(64) not null default ''
		)`,
		`create table if not exists genre (
			id bigserial primary key,
			name varchar(64) not null unique,
			description text not null default ''
		)`,
		`create table if not exists anime_genre (
			anime_id bigint not null references anime(id),
			genre_id bigint not null references genre(id),
			primary key (anime_id, genre_id)
		)`,
		`create table if not exists review (
			id bigserial primary key,
			anime_id bigint not null references anime(id),
			user_id varchar(64) not null,
			rating int not null,
			content text not null default '',
			created_at timestamptz not null,
			updated_at timestamptz not null
		)`,
		`create index if not exists review_anime_id on review(anime_id)`,
	},
	"sqlite3": {
		`create table if not exists anime (
			id integer primary key autoincrement,
			title varchar(255) not null,
			original_title varchar(255) not null default '',
			year int not null,
			synopsis text not null default '',
			episodes int not null,
			duration int not null,
			is_deleted boolean not null default false,
			created_at timestamp not null,
			updated_at timestamp not null,
			updated_by varchar(64) not null default ''
		)`,
		`create table if not exists genre (
			id integer primary key autoincrement,
			name varchar(64) not null unique,
			description text not null default ''
		)`,
		`create table if not exists anime_genre (
			anime_id integer not null references anime(id),
			genre_id integer not null references genre(id),
			primary key (anime_id, genre_id)
		)`,
		`create table if not exists review (
			id integer primary key autoincrement,
			anime_id integer not null references anime(id),
			user_id varchar(64) not null,
			rating int not null,
			content text not null default '',
			created_at timestamp not null,
			updated_at timestamp not null
		)`,
		`create index if not exists review_anime_id on review(anime_id)`,
	},
}

const animeColumns = "title, original_title, year, synopsis, episodes, duration, is_deleted, created_at, updated_at, updated_by"

const (
	insertAnime = `
		insert into anime (` + animeColumns + `)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		returning id`
	upsertGenre = `
		insert into genre (name, description)
		values ($1, $2)
		on conflict (name) do update set name = excluded.name
		returning id`
	insertAnimeGenre = `
		insert into anime_genre (anime_id, genre_id)
		values ($1, $2)
		on conflict do nothing`
	insertReview = `
		insert into review (anime_id, user_id, rating, content, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6)`
	selectAnime = `
		select id, ` + animeColumns + `
		from anime
		order by id
		limit $1`
	selectGenres = `
		select ag.anime_id, g.name, g.description
		from anime_genre ag
		join genre g on g.id = ag.genre_id
		where ag.anime_id in (select id from anime order by id limit $1)
		order by ag.anime_id, g.id`
	selectReviews = `
		select anime_id, user_id, rating, content, created_at, updated_at
		from review
		where anime_id in (select id from anime order by id limit $1)
		order by anime_id, id`
	updateTitle = `
		update anime
		set title = $1, updated_at = $2
		where id = $3`
	selectTopRated = `
		select a.id, a.title, avg(r.rating), count(*)
		from anime a
		join review r on r.anime_id = a.id
		group by a.id, a.title
		order by avg(r.rating) desc, a.id
		limit $1`
	selectUsers = `
		select distinct user_id
		from review
		limit $1`
)

// genres are a lookup table and survive the cleanup
var deleteAll = []string{
	"delete from review",
	"delete from anime_genre",
	"delete from anime",
}
